package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "login"
	if strings.TrimSpace(email) == "" || password == "" {
		return "", &Error{Kind: KindValidation, Op: op, Message: "Email and password are required."}
	}

	env, err := c.do(ctx, op, http.MethodPost, loginRequest{Email: email, Password: password}, "auth", "login")
	if err != nil {
		return "", err
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", &Error{Kind: KindShape, Op: op, Err: err}
	}
	if data.Token == "" {
		return "", &Error{Kind: KindShape, Op: op, Err: errors.New("response carries no token")}
	}
	return data.Token, nil
}
