package services

import (
  "context"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/repos"
  "github.com/sashaspath/backend/internal/requestdata"
  "github.com/sashaspath/backend/internal/types"
)

// AuthService is a thin identity boundary: real authentication lives outside
// this service. Login issues a signed token for an email; SetContextFromToken
// verifies one and stamps the request context.
type AuthService interface {
  Login(ctx context.Context, email, displayName string) (string, *types.User, error)
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
  log       *logger.Logger
  users     repos.UserRepo
  secretKey []byte
  tokenTTL  time.Duration
}

func NewAuthService(log *logger.Logger, users repos.UserRepo, secretKey string, tokenTTL time.Duration) AuthService {
  return &authService{
    log:       log.With("service", "AuthService"),
    users:     users,
    secretKey: []byte(secretKey),
    tokenTTL:  tokenTTL,
  }
}

type tokenClaims struct {
  Admin bool `json:"admin"`
  jwt.RegisteredClaims
}

func (as *authService) Login(ctx context.Context, email, displayName string) (string, *types.User, error) {
  if email == "" {
    return "", nil, fmt.Errorf("login: email required")
  }
  user, err := as.users.GetOrCreateByEmail(ctx, nil, email, displayName)
  if err != nil {
    return "", nil, fmt.Errorf("login: %w", err)
  }

  now := time.Now()
  claims := tokenClaims{
    Admin: user.IsAdmin,
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      IssuedAt:  jwt.NewNumericDate(now),
      ExpiresAt: jwt.NewNumericDate(now.Add(as.tokenTTL)),
    },
  }
  token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secretKey)
  if err != nil {
    return "", nil, fmt.Errorf("login: sign token: %w", err)
  }

  as.log.Info("user logged in", "user_id", user.ID, "email", email)
  return token, user, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  var claims tokenClaims
  token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
    }
    return as.secretKey, nil
  })
  if err != nil || !token.Valid {
    return ctx, fmt.Errorf("invalid token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("invalid token subject")
  }
  return requestdata.WithRequestData(ctx, &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    IsAdmin:     claims.Admin,
  }), nil
}
