package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Blue-Finch-Software/linkkeeper-back/internal/apperr"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/auth"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/config"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/db"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/service"
)

type (
	CredentialsReq struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	SigninResp struct {
		AccessToken string `json:"access_token"`
	}

	UserEditReq struct {
		Email     *string `json:"email" validate:"omitempty,email"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	}

	UserResp struct {
		ID        uint64    `json:"id"`
		Email     string    `json:"email"`
		FirstName *string   `json:"firstName,omitempty"`
		LastName  *string   `json:"lastName,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	BookmarkCreateReq struct {
		Title       string  `json:"title" validate:"required"`
		Link        string  `json:"link" validate:"required"`
		Description *string `json:"description"`
	}

	BookmarkEditReq struct {
		Title       *string `json:"title"`
		Link        *string `json:"link"`
		Description *string `json:"description"`
	}

	BookmarkResp struct {
		ID          uint64    `json:"id"`
		Title       string    `json:"title"`
		Link        string    `json:"link"`
		Description *string   `json:"description,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	ErrorResp struct {
		Message string `json:"message"`
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		db        *gorm.DB
		tokens    *auth.TokenCodec
		auth      *service.Auth
		users     *service.User
		bookmarks *service.Bookmark
		logger    *zap.SugaredLogger
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	database *gorm.DB,
	tokens *auth.TokenCodec,
	authSvc *service.Auth,
	userSvc *service.User,
	bookmarkSvc *service.Bookmark,
	logger *zap.SugaredLogger,
) *HTTPServer {
	instance := HTTPServer{
		db:        database,
		tokens:    tokens,
		auth:      authSvc,
		users:     userSvc,
		bookmarks: bookmarkSvc,
		logger:    logger,
	}

	e := instance.buildEcho()

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal("shutting down the server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return &instance
}

func (s *HTTPServer) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.POST("/auth/signup", s.Signup)
	e.POST("/auth/signin", s.Signin)

	userG := e.Group("/user", s.RequireAuth)
	userG.GET("/me", s.UserMe)
	userG.PATCH("", s.UserEdit)

	bookmarkG := e.Group("/bookmark", s.RequireAuth)
	bookmarkG.GET("", s.BookmarkList)
	bookmarkG.GET("/:id", s.BookmarkGet)
	bookmarkG.POST("", s.BookmarkCreate)
	bookmarkG.PATCH("/:id", s.BookmarkEdit)
	bookmarkG.DELETE("/:id", s.BookmarkDelete)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			s.logger.Infow("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"body", string(censorBody(reqBody)),
			)
		},
	}))

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = s.HandleError

	return e
}

func (s *HTTPServer) Signup(c echo.Context) error {
	req := CredentialsReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.auth.Signup(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResp(user))
}

func (s *HTTPServer) Signin(c echo.Context) error {
	req := CredentialsReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.auth.Signin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SigninResp{AccessToken: token})
}

func (s *HTTPServer) UserMe(c echo.Context) error {
	user, err := UserFromContext(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResp(user))
}

func (s *HTTPServer) UserEdit(c echo.Context) error {
	user, err := UserFromContext(c)
	if err != nil {
		return err
	}

	req := UserEditReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := s.users.EditProfile(c.Request().Context(), user.ID, service.UserUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResp(updated))
}

func (s *HTTPServer) BookmarkList(c echo.Context) error {
	user, err := UserFromContext(c)
	if err != nil {
		return err
	}

	bookmarks, err := s.bookmarks.List(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	resp := make([]BookmarkResp, len(bookmarks))
	for i := range bookmarks {
		resp[i] = toBookmarkResp(&bookmarks[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) BookmarkGet(c echo.Context) error {
	user, err := UserFromContext(c)
	if err != nil {
		return err
	}
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	bookmark, err := s.bookmarks.GetByID(c.Request().Context(), user.ID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toBookmarkResp(bookmark))
}

func (s *HTTPServer) BookmarkCreate(c echo.Context) error {
	user, err := UserFromContext(c)
	if err != nil {
		return err
	}

	req := BookmarkCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	bookmark, err := s.bookmarks.Create(c.Request().Context(), user.ID, req.Title, req.Link, req.Description)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toBookmarkResp(bookmark))
}

func (s *HTTPServer) BookmarkEdit(c echo.Context) error {
	user, err := UserFromContext(c)
	if err != nil {
		return err
	}
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	req := BookmarkEditReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	bookmark, err := s.bookmarks.EditByID(c.Request().Context(), user.ID, id, service.BookmarkUpdate{
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toBookmarkResp(bookmark))
}

func (s *HTTPServer) BookmarkDelete(c echo.Context) error {
	user, err := UserFromContext(c)
	if err != nil {
		return err
	}
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.bookmarks.DeleteByID(c.Request().Context(), user.ID, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// RequireAuth gates the protected routes: bearer token extraction, signature
// and expiry verification, subject lookup, context annotation. It rejects or
// annotates, never mutates.
func (s *HTTPServer) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return apperr.Unauthorized("missing credentials")
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header || tokenString == "" {
			return apperr.Unauthorized("missing credentials")
		}

		userID, err := s.tokens.Verify(tokenString)
		if err != nil {
			s.logger.Debugw("token rejected", "err", err)
			return apperr.Unauthorized("invalid or expired token")
		}

		user := db.User{}
		res := s.db.WithContext(c.Request().Context()).First(&user, userID)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				// Subject vanished after the token was issued.
				return apperr.Unauthorized("invalid or expired token")
			}
			return errors.Wrap(res.Error, "find user in db")
		}

		c.Set("user", &user)
		return next(c)
	}
}

// HandleError maps application errors to their HTTP status with a generic
// message. Anything untyped is logged and answered as a bare 500.
func (s *HTTPServer) HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	appErr := &apperr.Error{}
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.KindInternal {
			s.logger.Errorw("internal error", "err", err, "path", c.Request().URL.Path)
		}
		_ = c.JSON(appErr.Kind.HTTPStatus(), ErrorResp{Message: appErr.Message})
		return
	}

	httpErr := &echo.HTTPError{}
	if errors.As(err, &httpErr) {
		_ = c.JSON(httpErr.Code, ErrorResp{Message: http.StatusText(httpErr.Code)})
		return
	}

	s.logger.Errorw("unhandled error", "err", err, "path", c.Request().URL.Path)
	_ = c.JSON(http.StatusInternalServerError, ErrorResp{Message: "internal server error"})
}

////////

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func BindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("malformed request body")
	}
	if err := c.Validate(v); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func UserFromContext(c echo.Context) (*db.User, error) {
	user, ok := c.Get("user").(*db.User)
	if !ok || user == nil {
		return nil, errors.New("no user found in context")
	}
	return user, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	value := c.Param(name)
	if value == "" {
		return 0, apperr.Validation("invalid path param '" + name + "'")
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid path param '" + name + "'")
	}
	return parsed, nil
}

func toUserResp(u *db.User) UserResp {
	return UserResp{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toBookmarkResp(b *db.Bookmark) BookmarkResp {
	return BookmarkResp{
		ID:          b.ID,
		Title:       b.Title,
		Link:        b.Link,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// censorBody blanks the password field before a request body hits the log.
func censorBody(body []byte) []byte {
	m := map[string]interface{}{}
	if err := json.Unmarshal(body, &m); err != nil {
		return body
	}
	if _, ok := m["password"]; ok {
		m["password"] = "$censored"
	}
	censored, err := json.Marshal(m)
	if err != nil {
		return body
	}
	return censored
}
