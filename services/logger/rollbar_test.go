package logsvc

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

func newTestLogger(debug bool) (*RollbarLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "TEST : ", 0), &core.Config{Env: "TEST", Debug: debug})
	logger.Enable(true) // no token: stays disabled
	return logger, &buf
}

func TestRollbarLogger_print(t *testing.T) {
	logger, buf := newTestLogger(false)

	logger.Warn(
		"resolving profile image",
		errors.New("file not found"),
		map[string]interface{}{"studentId": 3},
		user.User{ID: "42", Username: "awe"},
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"TEST : WARN: resolving profile image",
		"TEST :   file not found",
		"TEST :   map[studentId:3]",
		"TEST :   user: awe (42)",
	}, lines)
}

func TestRollbarLogger_printUserRole(t *testing.T) {
	logger, buf := newTestLogger(false)

	logger.Info("calendar built", user.User{ID: "7", Username: "mwalimu", Roles: []string{user.RoleStudent, user.RoleTeacher}})

	assert.Equal(t, "TEST : INFO: calendar built\nTEST :   user: mwalimu (7, teacher:)\n", buf.String())
}

func TestRollbarLogger_Debug(t *testing.T) {
	logger, buf := newTestLogger(false)
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger, buf = newTestLogger(true)
	logger.Debug("shown", "extra")
	assert.Equal(t, "TEST : DEBUG: shown\nTEST :   extra\n", buf.String())
}
