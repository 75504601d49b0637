package entity

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

type Profile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}
