package dto

// LoginForm is posted by the login page.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// RegisterForm is posted by the registration page.
type RegisterForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
	Role     string `form:"role"`
}

// Echo returns the form without the password, for re-rendering.
func (f RegisterForm) Echo() RegisterForm {
	f.Password = ""
	return f
}

// CreateTicketForm is posted by the new ticket page.
type CreateTicketForm struct {
	Subject     string `form:"subject"`
	Description string `form:"description"`
}

// UpdateStatusForm is posted from the ticket detail page.
type UpdateStatusForm struct {
	Status string `form:"status"`
}
