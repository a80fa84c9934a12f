package jwttoken

import (
	authmw "landgrid/pkg/platform/middleware/auth"
)

// JWTServiceAdapter narrows JWTService to the middleware's TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{
		AccountID: claims.AccountID,
		JTI:       claims.ID,
	}, nil
}
