package department

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}

type UpdateDepartmentRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}

type DepartmentResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	EmployeeCount int64  `json:"employee_count"`
}
