package employee

type CreateEmployeeRequest struct {
	FullName     string  `json:"full_name" binding:"required,min=2,max=255"`
	Email        string  `json:"email" binding:"required,email"`
	NIP          string  `json:"nip"`
	DepartmentID string  `json:"department_id" binding:"required,uuid"`
	Role         string  `json:"role" binding:"omitempty,oneof=ADMIN EMPLOYEE"`
	Balance      *int    `json:"annual_leave_balance" binding:"omitempty,min=0"`
	Phone        *string `json:"phone"`
	SignatureRef *string `json:"signature_ref"`
}

type UpdateEmployeeRequest struct {
	FullName     string  `json:"full_name" binding:"required,min=2,max=255"`
	Email        string  `json:"email" binding:"required,email"`
	DepartmentID string  `json:"department_id" binding:"required,uuid"`
	Role         string  `json:"role" binding:"required,oneof=ADMIN EMPLOYEE"`
	Phone        *string `json:"phone"`
	SignatureRef *string `json:"signature_ref"`
}

type EmployeeResponse struct {
	ID                 string  `json:"id"`
	NIP                string  `json:"nip"`
	FullName           string  `json:"full_name"`
	Email              string  `json:"email"`
	DepartmentID       *string `json:"department_id,omitempty"`
	Role               string  `json:"role"`
	AnnualLeaveBalance int     `json:"annual_leave_balance"`
	Phone              *string `json:"phone,omitempty"`
	SignatureRef       *string `json:"signature_ref,omitempty"`
}
