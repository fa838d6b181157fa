package auth

import (
	"context"
	"errors"
	"os"
	"time"

	autherrors "leavedesk/internal/auth/errors"
	"leavedesk/internal/employee"
	employeeerrors "leavedesk/internal/employee/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = time.Minute * 15
	refreshTokenTTL = time.Hour * 24 * 7
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, nip, password string) (accessToken, refreshToken string, resp AuthResponse, err error)
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, resp AuthResponse, err error)
	GetMe(ctx context.Context, employeeID string) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)

	// VerifyPassword re-checks an employee's credential. The workflow
	// uses it as the reauthentication gate before reversing a committed
	// leave request.
	VerifyPassword(ctx context.Context, employeeID, password string) error
}

type service struct {
	repo         Repository
	employeeRepo employee.Repository
	logger       *zap.Logger
}

func NewService(repo Repository, employeeRepo employee.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, employeeRepo: employeeRepo, logger: l}
}

func (s *service) Login(ctx context.Context, nip, password string) (string, string, AuthResponse, error) {
	emp, err := s.employeeRepo.FindByNIP(ctx, nip)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmployeeID(ctx, emp.ID)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("login rejected", zap.String("nip", nip))
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	accessToken, err := s.generateToken(emp.ID.String(), emp.Role, accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	refreshToken, err := s.generateToken(emp.ID.String(), emp.Role, refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	return accessToken, refreshToken, AuthResponse{
		EmployeeID: emp.ID.String(),
		NIP:        emp.NIP,
		Name:       emp.FullName,
		Email:      emp.Email,
		Role:       emp.Role,
	}, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, string, AuthResponse, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherrors.ErrInvalidToken
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return "", "", AuthResponse{}, autherrors.ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	emp, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrUserNotFound
	}

	newAccess, err := s.generateToken(emp.ID.String(), emp.Role, accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	newRefresh, err := s.generateToken(emp.ID.String(), emp.Role, refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	return newAccess, newRefresh, AuthResponse{
		EmployeeID: emp.ID.String(),
		NIP:        emp.NIP,
		Name:       emp.FullName,
		Email:      emp.Email,
		Role:       emp.Role,
	}, nil
}

func (s *service) GetMe(ctx context.Context, employeeID string) (*AuthResponse, error) {
	emp, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employeeerrors.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &AuthResponse{
		EmployeeID: emp.ID.String(),
		NIP:        emp.NIP,
		Name:       emp.FullName,
		Email:      emp.Email,
		Role:       emp.Role,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AuthResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	emp, err := s.employeeRepo.FindByID(ctx, employeeID.String())
	if err != nil {
		return AuthResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	user := &User{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Password:   string(hashed),
		IsActive:   true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return AuthResponse{}, autherrors.ErrAlreadyRegistered
	}

	return AuthResponse{
		EmployeeID: emp.ID.String(),
		NIP:        emp.NIP,
		Name:       emp.FullName,
		Email:      emp.Email,
		Role:       emp.Role,
	}, nil
}

func (s *service) VerifyPassword(ctx context.Context, employeeID, password string) error {
	id, err := uuid.Parse(employeeID)
	if err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}

	user, err := s.repo.GetByEmployeeID(ctx, id)
	if err != nil {
		return autherrors.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return autherrors.ErrInvalidCredentials
	}
	return nil
}

func (s *service) generateToken(employeeID, role string, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"employee_id": employeeID,
		"role":        role,
		"exp":         time.Now().Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
