package auth

type LoginRequest struct {
	NIP      string `json:"nip" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	EmployeeID string `json:"employeeId" binding:"required,uuid"`
	Password   string `json:"password" binding:"required,min=6"`
}

type AuthResponse struct {
	EmployeeID string `json:"employeeId"`
	NIP        string `json:"nip"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}
