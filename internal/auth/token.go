// Пакет auth — выпуск и проверка bearer-токенов каталога.
//
// Токены — JWT HS256 с claims sub, iss, iat, nbf, exp, jti и заголовком kid.
// Ключи подписи хранятся в in-memory JWK Set (jwkset), проверка подписи
// идёт через keyfunc по kid. Конфигурация неизменяема и передаётся
// в конструктор, смена ключа — только через RotateKey.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MinSecretLen — минимальная длина ключа HS256 в байтах.
const MinSecretLen = 32

// Причины отказа в проверке токена.
const (
	ReasonMalformed   = "malformed"
	ReasonSignature   = "signature"
	ReasonExpired     = "expired"
	ReasonNotYetValid = "not_yet_valid"
	ReasonUnknownKey  = "unknown_key"
	ReasonIssuer      = "issuer"
)

// ErrInvalidToken — токен не прошёл проверку. Причина — в *InvalidTokenError.
var ErrInvalidToken = errors.New("невалидный токен")

// InvalidTokenError описывает причину отказа.
type InvalidTokenError struct {
	Reason string
	Err    error
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("невалидный токен (%s): %v", e.Reason, e.Err)
}

// Is позволяет сравнивать через errors.Is(err, ErrInvalidToken).
func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

func (e *InvalidTokenError) Unwrap() error {
	return e.Err
}

// tokensTotal — счётчик выпущенных и проверенных токенов.
var tokensTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ogl_auth_tokens_total",
		Help: "Количество выпущенных и проверенных токенов по результату.",
	},
	[]string{"result"},
)

// TokenConfig — параметры выпуска и проверки токенов.
type TokenConfig struct {
	// Secret — симметричный ключ HS256 (не короче MinSecretLen)
	Secret []byte
	// KeyID — kid ключа
	KeyID string
	// Issuer — значение claim iss
	Issuer string
	// TTL — время жизни токена
	TTL time.Duration
	// Leeway — допустимое отклонение часов
	Leeway time.Duration
	// ValidateIssuer — проверять ли iss
	ValidateIssuer bool
}

// Token — выпущенный токен.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// signingKey — текущий ключ подписи.
type signingKey struct {
	kid    string
	secret []byte
}

// TokenService выпускает и проверяет токены.
// Безопасен для конкурентного использования.
type TokenService struct {
	issuer         string
	ttl            time.Duration
	leeway         time.Duration
	validateIssuer bool

	current atomic.Pointer[signingKey]
	keys    *jwkset.MemoryJWKSet
	kf      keyfunc.Keyfunc

	now    func() time.Time
	logger *slog.Logger
}

// NewTokenService создаёт сервис токенов и регистрирует начальный ключ.
func NewTokenService(cfg TokenConfig, logger *slog.Logger) (*TokenService, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("время жизни токена должно быть положительным")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("не задан issuer")
	}

	keys := jwkset.NewMemoryStorage()
	kf, err := keyfunc.New(keyfunc.Options{Storage: keys})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	s := &TokenService{
		issuer:         cfg.Issuer,
		ttl:            cfg.TTL,
		leeway:         cfg.Leeway,
		validateIssuer: cfg.ValidateIssuer,
		keys:           keys,
		kf:             kf,
		now:            time.Now,
		logger:         logger.With(slog.String("component", "token_service")),
	}

	if err := s.RotateKey(context.Background(), cfg.KeyID, cfg.Secret); err != nil {
		return nil, err
	}
	return s, nil
}

// Issue выпускает токен для пользователя userID.
func (s *TokenService) Issue(userID string) (Token, error) {
	if userID == "" {
		return Token{}, fmt.Errorf("пустой идентификатор пользователя")
	}

	key := s.current.Load()
	now := s.now()
	exp := now.Add(s.ttl)
	jti := uuid.New().String()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header[jwkset.HeaderKID] = key.kid

	signed, err := token.SignedString(key.secret)
	if err != nil {
		return Token{}, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	tokensTotal.WithLabelValues("issued").Inc()
	return Token{Value: signed, ID: jti, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Validate проверяет подпись и срок действия токена и возвращает
// идентификатор пользователя из sub. Issuer проверяется, только если
// это включено в TokenConfig.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	}
	if s.validateIssuer {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.kf.KeyfuncCtx(ctx), opts...)
	if err != nil {
		return "", s.invalid(classify(err), err)
	}
	if claims.Subject == "" {
		return "", s.invalid(ReasonMalformed, errors.New("отсутствует sub"))
	}

	tokensTotal.WithLabelValues("valid").Inc()
	return claims.Subject, nil
}

func (s *TokenService) invalid(reason string, err error) error {
	tokensTotal.WithLabelValues(reason).Inc()
	s.logger.Debug("Токен отклонён",
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)
	return &InvalidTokenError{Reason: reason, Err: err}
}

// classify сопоставляет ошибку jwt с причиной отказа.
func classify(err error) string {
	switch {
	case errors.Is(err, jwkset.ErrKeyNotFound):
		return ReasonUnknownKey
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ReasonNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ReasonIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ReasonSignature
	default:
		return ReasonMalformed
	}
}

// RotateKey регистрирует новый ключ подписи и делает его текущим.
// Предыдущие ключи остаются в наборе: выпущенные ими токены
// действительны до истечения срока или до RetireKey.
func (s *TokenService) RotateKey(ctx context.Context, kid string, secret []byte) error {
	if kid == "" {
		return fmt.Errorf("не задан kid ключа")
	}
	if len(secret) < MinSecretLen {
		return fmt.Errorf("длина ключа %d байт, требуется не менее %d", len(secret), MinSecretLen)
	}

	// Копия: вызывающий код может переиспользовать срез.
	secret = append([]byte(nil), secret...)

	jwk, err := jwkset.NewJWKFromKey(secret, jwkset.JWKOptions{
		Marshal: jwkset.JWKMarshalOptions{Private: true},
		Metadata: jwkset.JWKMetadataOptions{
			KID: kid,
			ALG: jwkset.AlgHS256,
			USE: jwkset.UseSig,
		},
	})
	if err != nil {
		return fmt.Errorf("создание JWK: %w", err)
	}
	if err := s.keys.KeyWrite(ctx, jwk); err != nil {
		return fmt.Errorf("запись JWK: %w", err)
	}

	s.current.Store(&signingKey{kid: kid, secret: secret})
	s.logger.Info("Ключ подписи токенов активирован", slog.String("kid", kid))
	return nil
}

// RetireKey удаляет ключ из набора: токены с этим kid перестают проходить
// проверку. Текущий ключ подписи удалить нельзя.
func (s *TokenService) RetireKey(ctx context.Context, kid string) error {
	if cur := s.current.Load(); cur != nil && cur.kid == kid {
		return fmt.Errorf("ключ %s используется для подписи", kid)
	}
	ok, err := s.keys.KeyDelete(ctx, kid)
	if err != nil {
		return fmt.Errorf("удаление JWK: %w", err)
	}
	if !ok {
		return fmt.Errorf("ключ %s не найден", kid)
	}
	s.logger.Info("Ключ подписи токенов выведен", slog.String("kid", kid))
	return nil
}

// KeyID возвращает kid текущего ключа подписи.
func (s *TokenService) KeyID() string {
	return s.current.Load().kid
}

// TTL возвращает время жизни выпускаемых токенов.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
