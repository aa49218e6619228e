package errprocess

import (
	"errors"
	"fmt"

	"chat_relay_service/pkg/logger"

	"go.uber.org/zap"
)

// Set set err info
func Set(errMsg string, fields ...zap.Field) error {
	logger.Log.Error(errMsg, fields...)
	return errors.New(errMsg)
}

// Wrap log err with msg and return it wrapped, nil stays nil
func Wrap(msg string, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	logger.Log.Error(msg, append(fields, zap.Error(err))...)
	return fmt.Errorf("%s: %w", msg, err)
}
