package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/appctx"
	"bitbucket.org/mmdatafocus/transfer_console/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateLocalId returns a session-local identifier for rows created in the
// editing workspace. These never collide with backend ids.
func GenerateLocalId() string {
	return uuid.NewString()
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	// Remove any whitespace and check for empty strings
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	// Convert string to decimal
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// CoerceAmount normalizes raw user input into a non-negative decimal.
// Malformed, empty or negative input coerces to zero so the editing grid
// stays renderable instead of erroring on every keystroke.
func CoerceAmount(value string) decimal.Decimal {
	dec, err := ParseDecimal(value)
	if err != nil || dec.IsNegative() {
		return decimal.Zero
	}
	return dec
}

// CoerceQuantity normalizes raw user input into a non-negative integer
// quantity. Fractional input is truncated toward zero.
func CoerceQuantity(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	dec, err := ParseDecimal(value)
	if err != nil || dec.IsNegative() {
		return 0
	}
	return dec.IntPart()
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var def T
	if len(defaults) > 0 {
		def = defaults[0]
	}
	return def
}

// ProcessValidationErrors maps gin binding errors to a field->message map
// the console can render next to the offending inputs.
func ProcessValidationErrors(err error) map[string]string {
	errorsMap := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			errorsMap[fieldErr.Field()] = fmt.Sprintf("failed on '%s' rule", fieldErr.Tag())
		}
	} else {
		errorsMap["_"] = err.Error()
	}
	return errorsMap
}

func SetSessionIdInContext(ctx context.Context, sessionId string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeySessionId, sessionId)
}

func GetSessionIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeySessionId)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyUserId, userId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, appctx.ContextKeyUserId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyUserName, userName)
}

// WorkspaceLock obtains a short-lived distributed lock for one workspace id
// and returns the release func. Guards the submit path against a second
// console tab firing a duplicate submission. When Redis is unavailable the
// caller falls back to the local in-flight status check alone.
func WorkspaceLock(ctx context.Context, workspaceId string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("TransferWorkspace:Submit:%s", workspaceId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for workspace", workspaceId, err)
		return nil, errors.New("a submission for this transfer is already in progress")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for workspace", workspaceId, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
