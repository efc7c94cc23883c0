package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/raywall/fast-todo-service/pkg/apperr"
)

// Authenticator extrai o userId de um cabeçalho Authorization.
type Authenticator interface {
	Authenticate(ctx context.Context, authorizationHeader string) (string, error)
}

// KeySource fornece a chave HMAC atual (satisfeita por *KeyManager)
type KeySource interface {
	Get() ([]byte, error)
}

// JWTConfig parametriza a verificação
type JWTConfig struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
	// InsecureSkipVerify lê o token sem verificar a assinatura (exp continua
	// valendo). Só existe para desenvolvimento offline.
	InsecureSkipVerify bool
}

// JWTAuthenticator valida tokens HS256 e devolve a claim sub.
type JWTAuthenticator struct {
	keys   KeySource
	cfg    JWTConfig
	parser *jwt.Parser
	// usado só no modo inseguro, onde o parser não valida as claims
	claimsValidator *jwt.Validator
}

func NewJWTAuthenticator(keys KeySource, cfg JWTConfig) (*JWTAuthenticator, error) {
	if keys == nil && !cfg.InsecureSkipVerify {
		return nil, apperr.Configuration("auth.secret", "signing key source is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTAuthenticator{
		keys:            keys,
		cfg:             cfg,
		parser:          jwt.NewParser(opts...),
		claimsValidator: jwt.NewValidator(jwt.WithLeeway(cfg.Leeway)),
	}, nil
}

// Authenticate espera "Bearer <token>". Falhas do token viram UnauthorizedError;
// falha ao obter a chave de assinatura é ConfigurationError.
func (a *JWTAuthenticator) Authenticate(_ context.Context, header string) (string, error) {
	tokenStr, err := bearerToken(header)
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{}
	if a.cfg.InsecureSkipVerify {
		if _, _, err := a.parser.ParseUnverified(tokenStr, claims); err != nil {
			return "", apperr.Unauthorized("malformed token", err)
		}
		if err := a.claimsValidator.Validate(claims); err != nil {
			return "", apperr.Unauthorized(reason(err), err)
		}
	} else {
		var keyErr error
		_, err := a.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			key, err := a.keys.Get()
			if err != nil {
				keyErr = err
				return nil, err
			}
			return key, nil
		})
		if keyErr != nil {
			return "", apperr.Configuration("auth.signing_key", keyErr.Error())
		}
		if err != nil {
			return "", apperr.Unauthorized(reason(err), err)
		}
	}

	if claims.Subject == "" {
		return "", apperr.Unauthorized("token has no subject", nil)
	}
	return claims.Subject, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.Unauthorized("missing authorization header", nil)
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.Unauthorized("authorization header must use Bearer token", nil)
	}
	return strings.TrimSpace(token), nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "token not issued for this service"
	default:
		return "invalid token"
	}
}
