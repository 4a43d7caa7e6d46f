package pb

type OperatorSignInRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

func (x *OperatorSignInRequest) GetUsername() string {
	if x != nil {
		return x.Username
	}
	return ""
}

func (x *OperatorSignInRequest) GetPassword() string {
	if x != nil {
		return x.Password
	}
	return ""
}

type OperatorSignInResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"-"`
}

type OperatorSignOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (x *OperatorSignOutRequest) GetRefreshToken() string {
	if x != nil {
		return x.RefreshToken
	}
	return ""
}
