package response

type Session struct {
	AccessToken string `json:"access_token"`
	DisplayName string `json:"display_name"`
	Message     string `json:"message"`
}

type Lookup struct {
	UsernameExists    bool `json:"username_exists"`
	PhoneNumberExists bool `json:"phone_number_exists"`
}
