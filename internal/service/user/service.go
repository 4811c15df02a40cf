// Package user 实现用户注册、登录以及用户名与 ID 的解析
package user

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"direct_chat_server/internal/dao/mysql/repository"
	myredis "direct_chat_server/internal/dao/redis"
	"direct_chat_server/internal/model"
	"direct_chat_server/pkg/constants"
	"direct_chat_server/pkg/errorx"
)

// TokenIssuer 为用户签发访问令牌
type TokenIssuer interface {
	Generate(username string) (string, error)
}

// userService 用户业务逻辑实现
type userService struct {
	repos    *repository.Repositories
	tokens   TokenIssuer
	cache    myredis.AsyncCacheService // 可为 nil，表示不启用身份缓存
	cacheTTL time.Duration
}

// NewUserService 构造函数，cache 为 nil 时直接查库
func NewUserService(repos *repository.Repositories, tokens TokenIssuer, cache myredis.AsyncCacheService, cacheTTL time.Duration) *userService {
	return &userService{
		repos:    repos,
		tokens:   tokens,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Register 注册新用户并返回令牌
func (u *userService) Register(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return "", errorx.ErrInvalidParam
	}

	err := u.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		_, err := tx.User.FindByUsername(ctx, username)
		if err == nil {
			return errorx.New(errorx.CodeUserExist, "Username already taken")
		}
		if !errorx.IsNotFound(err) {
			return err
		}
		return tx.User.Create(ctx, &model.User{Username: username, RawPassword: password})
	})
	if err != nil {
		switch errorx.GetCode(err) {
		case errorx.CodeUserExist:
			zap.L().Info("register rejected, username taken", zap.String("username", username))
			return "", errorx.New(errorx.CodeUserExist, "Username already taken")
		default:
			zap.L().Error("register user", zap.String("username", username), zap.Error(err))
			return "", errorx.ErrServerBusy
		}
	}
	zap.L().Info("user registered", zap.String("username", username))

	return u.issue(username)
}

// Login 校验用户名密码并返回令牌
// 用户不存在与密码错误返回同一个错误，避免暴露用户名是否存在
func (u *userService) Login(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return "", errorx.ErrInvalidParam
	}

	user, err := u.repos.User.FindByUsername(ctx, username)
	if err != nil {
		if errorx.IsNotFound(err) {
			return "", errorx.New(errorx.CodeInvalidPassword, "Invalid credentials")
		}
		zap.L().Error("login lookup", zap.String("username", username), zap.Error(err))
		return "", errorx.ErrServerBusy
	}
	if !user.CheckPassword(password) {
		return "", errorx.New(errorx.CodeInvalidPassword, "Invalid credentials")
	}

	return u.issue(username)
}

func (u *userService) issue(username string) (string, error) {
	token, err := u.tokens.Generate(username)
	if err != nil {
		zap.L().Error("generate token", zap.String("username", username), zap.Error(err))
		return "", errorx.ErrServerBusy
	}
	return token, nil
}

// ResolveID 用户名 -> ID，优先读缓存
func (u *userService) ResolveID(ctx context.Context, username string) (int64, error) {
	if v := u.cached(ctx, constants.USER_ID_KEY_PREFIX+username); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id, nil
		}
	}

	user, err := u.repos.User.FindByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	u.remember(user)
	return user.ID, nil
}

// ResolveUsername ID -> 用户名，优先读缓存
func (u *userService) ResolveUsername(ctx context.Context, id int64) (string, error) {
	if v := u.cached(ctx, constants.USER_NAME_KEY_PREFIX+strconv.FormatInt(id, 10)); v != "" {
		return v, nil
	}

	user, err := u.repos.User.FindById(ctx, id)
	if err != nil {
		return "", err
	}
	u.remember(user)
	return user.Username, nil
}

// cached 读缓存，出错视为未命中
func (u *userService) cached(ctx context.Context, key string) string {
	if u.cache == nil {
		return ""
	}
	v, err := u.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("identity cache get", zap.String("key", key), zap.Error(err))
		return ""
	}
	return v
}

// remember 异步回填双向映射，用户名不会改变，因此无需失效
func (u *userService) remember(user *model.User) {
	if u.cache == nil {
		return
	}
	id := strconv.FormatInt(user.ID, 10)
	username := user.Username
	u.cache.SubmitTask(func() {
		ctx := context.Background()
		if err := u.cache.Set(ctx, constants.USER_ID_KEY_PREFIX+username, id, u.cacheTTL); err != nil {
			zap.L().Warn("identity cache set", zap.String("username", username), zap.Error(err))
		}
		if err := u.cache.Set(ctx, constants.USER_NAME_KEY_PREFIX+id, username, u.cacheTTL); err != nil {
			zap.L().Warn("identity cache set", zap.String("id", id), zap.Error(err))
		}
	})
}
