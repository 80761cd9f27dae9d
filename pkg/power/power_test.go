package power

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)
	assert.IsType(t, Logind{}, s)

	s, err = New(MethodCommand, nil)
	require.NoError(t, err)
	assert.Equal(t, Command{Args: DefaultCommand}, s)

	s, err = New(MethodCommand, []string{"poweroff"})
	require.NoError(t, err)
	assert.Equal(t, Command{Args: []string{"poweroff"}}, s)

	_, err = New("reboot", nil)
	assert.Error(t, err)
}

func TestCommand(t *testing.T) {
	assert.NoError(t, Command{Args: []string{"true"}}.Shutdown())
	assert.Error(t, Command{Args: []string{"false"}}.Shutdown())
	assert.Error(t, Command{}.Shutdown())
}

func TestFunc(t *testing.T) {
	calls := 0
	var s Shutdowner = Func(func() error {
		calls++
		return errors.New("denied")
	})
	assert.Error(t, s.Shutdown())
	assert.Equal(t, 1, calls)
}
