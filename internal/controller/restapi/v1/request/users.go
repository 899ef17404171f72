package request

type CreateAccount struct {
	Username    string `json:"username"     validate:"required"`
	Password    string `json:"password"     validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Name        string `json:"name"         validate:"required"`
}

type Login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Lookup struct {
	Username    string `json:"username"     validate:"required_without=PhoneNumber"`
	PhoneNumber string `json:"phone_number" validate:"required_without=Username"`
}
