package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/session"
)

var errNoToken = errors.New("login response without token")

type loginResponse struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"accessToken"`
	User        session.Profile `json:"user"`
}

type savedQuestionBody struct {
	QuestionID string `json:"questionId"`
}

// Login exchanges credentials for a backend token. Rejected credentials yield core.ErrUnauthorized.
func (c *Client) Login(ctx context.Context, req session.LoginRequest) (string, session.Profile, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, "", req)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			return "", session.Profile{}, errors.Wrap(core.ErrUnauthorized, se.Message)
		}
		return "", session.Profile{}, err
	}
	var res loginResponse
	if err := decode(raw, &res); err != nil {
		return "", session.Profile{}, err
	}
	token := res.Token
	if token == "" {
		token = res.AccessToken
	}
	if token == "" {
		return "", session.Profile{}, errNoToken
	}
	return token, res.User, nil
}

// Profile is the session check: it fails with core.ErrUnauthorized unless token is valid.
func (c *Client) Profile(ctx context.Context, token string) (session.Profile, error) {
	if token == "" {
		return session.Profile{}, core.ErrUnauthorized
	}
	raw, err := c.do(ctx, http.MethodGet, "/api/student/profile", nil, token, nil)
	if err != nil {
		return session.Profile{}, err
	}
	var res struct {
		session.Profile
		User *session.Profile `json:"user"`
	}
	if err := decode(raw, &res); err != nil {
		return session.Profile{}, err
	}
	if res.User != nil {
		return *res.User, nil
	}
	return res.Profile, nil
}

func (c *Client) SaveQuestion(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/student/save-question", nil, token, savedQuestionBody{QuestionID: id})
	return err
}

func (c *Client) RemoveSavedQuestion(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/student/remove-saved-question", nil, token, savedQuestionBody{QuestionID: id})
	return err
}

// Question fetches one question with its options. Invalid options fail the decode.
func (c *Client) Question(ctx context.Context, token, id string) (question.Record, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/questions/id/"+url.PathEscape(strings.TrimSpace(id)), nil, token, nil)
	if err != nil {
		return question.Record{}, err
	}
	rec, err := question.DecodeRecord(unwrap(raw))
	if err != nil {
		return question.Record{}, errors.Wrapf(err, "decoding question %s", id)
	}
	return rec, nil
}
