package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/repos"
	"github.com/yungbote/sheetgrader-backend/internal/requestdata"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService interface {
	Register(ctx context.Context, naturalID, email, password string) (*types.Teacher, error)
	Login(ctx context.Context, email, password string) (string, *types.Teacher, error)
	// LoginExternal resolves an externally-authenticated identity by email.
	// The external reference is attached to the teacher row the first time
	// it resolves; afterwards it must match.
	LoginExternal(ctx context.Context, email, externalRef string) (string, *types.Teacher, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	teacherRepo  repos.TeacherRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	teacherRepo repos.TeacherRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{
		db:           db,
		log:          serviceLog,
		teacherRepo:  teacherRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) Register(ctx context.Context, naturalID, email, password string) (*types.Teacher, error) {
	naturalID = strings.TrimSpace(naturalID)
	email = strings.ToLower(strings.TrimSpace(email))
	if naturalID == "" || email == "" || password == "" {
		return nil, fmt.Errorf("teacher id, email and password required")
	}

	emailTaken, err := as.teacherRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if emailTaken {
		return nil, fmt.Errorf("email %q already registered", email)
	}
	idTaken, err := as.teacherRepo.NaturalIDExists(ctx, nil, naturalID)
	if err != nil {
		return nil, fmt.Errorf("check teacher id: %w", err)
	}
	if idTaken {
		return nil, fmt.Errorf("teacher id %q already registered", naturalID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	teacher := &types.Teacher{
		ID:           uuid.New(),
		NaturalID:    naturalID,
		Email:        email,
		PasswordHash: string(hash),
	}
	created, err := as.teacherRepo.Create(ctx, nil, []*types.Teacher{teacher})
	if err != nil {
		return nil, fmt.Errorf("create teacher: %w", err)
	}
	as.log.Info("Teacher registered", "teacher", naturalID)
	return created[0], nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.Teacher, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	teachers, err := as.teacherRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", nil, fmt.Errorf("lookup teacher: %w", err)
	}
	if len(teachers) == 0 || teachers[0] == nil || teachers[0].PasswordHash == "" {
		return "", nil, ErrInvalidCredentials
	}
	teacher := teachers[0]
	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := as.generateAccessToken(teacher)
	if err != nil {
		return "", nil, err
	}
	return token, teacher, nil
}

func (as *authService) LoginExternal(ctx context.Context, email, externalRef string) (string, *types.Teacher, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	externalRef = strings.TrimSpace(externalRef)
	if email == "" || externalRef == "" {
		return "", nil, ErrInvalidCredentials
	}
	teachers, err := as.teacherRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", nil, fmt.Errorf("lookup teacher: %w", err)
	}
	if len(teachers) == 0 || teachers[0] == nil {
		return "", nil, ErrInvalidCredentials
	}
	teacher := teachers[0]
	switch teacher.ExternalIDRef {
	case "":
		if err := as.teacherRepo.AttachExternalIDRef(ctx, nil, teacher.ID, externalRef); err != nil {
			return "", nil, fmt.Errorf("attach external identity: %w", err)
		}
		teacher.ExternalIDRef = externalRef
	case externalRef:
		// Already attached, nothing to do.
	default:
		return "", nil, ErrInvalidCredentials
	}
	token, err := as.generateAccessToken(teacher)
	if err != nil {
		return "", nil, err
	}
	return token, teacher, nil
}

func (as *authService) generateAccessToken(teacher *types.Teacher) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": teacher.ID.String(),
		"nid": teacher.NaturalID,
		"iat": now.Unix(),
		"exp": now.Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	nid, _ := claims["nid"].(string)
	teacherID, err := uuid.Parse(sub)
	if err != nil || nid == "" {
		return ctx, ErrInvalidCredentials
	}
	rd := &requestdata.RequestData{
		TokenString:      tokenString,
		TeacherID:        teacherID,
		TeacherNaturalID: nid,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}
