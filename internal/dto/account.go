package dto

type CreateAccountInput struct {
	Username    string
	Password    string
	PhoneNumber string
	Name        string
}

type LoginInput struct {
	Username string
	Password string
}

type LookupInput struct {
	Username    string
	PhoneNumber string
}

type Session struct {
	AccessToken string
	DisplayName string
	Message     string
}

type LookupResult struct {
	UsernameExists    bool
	PhoneNumberExists bool
}
