package services

import (
	"fmt"
	"sync"

	"github.com/localnerve/authorizer-go"
	"github.com/sirupsen/logrus"

	"github.com/localnerve/docsdb/internal/config"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/utils"
)

var (
	authClient *authorizer.AuthorizerClient
	authOnce   sync.Once
)

// IsAuthorizerInitialized returns true if the Authorizer client is initialized
func IsAuthorizerInitialized() bool {
	return authClient != nil
}

// InitAuthorizer initializes the Authorizer client (singleton pattern)
func InitAuthorizer(cfg *config.Config, requestProtocol, requestHost string) error {
	var initErr error

	authOnce.Do(func() {
		// Ping the Authorizer service first
		if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
			initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
		logrus.WithFields(logrus.Fields{
			"authorizer_url": cfg.AuthzURL,
			"client_id":      cfg.AuthzClientID,
			"redirect_url":   redirectURL,
		}).Info("initializing authorizer")

		var err error
		authClient, err = authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
		if err != nil {
			initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
	})

	return initErr
}

// ValidateSession validates a session cookie and returns the principal with
// the roles the authorizer reports for it.
func ValidateSession(cookie string) (*permissions.User, error) {
	if authClient == nil {
		return nil, fmt.Errorf("authorizer client not initialized")
	}

	res, err := authClient.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}

	// Check if session is valid
	if res == nil || !res.IsValid || res.User == nil {
		return nil, fmt.Errorf("session is not valid")
	}

	roles := make([]string, 0, len(res.User.Roles))
	for _, role := range res.User.Roles {
		if role != nil {
			roles = append(roles, *role)
		}
	}

	return &permissions.User{
		ID:    res.User.ID,
		Email: res.User.Email,
		Roles: roles,
	}, nil
}
