package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/backhouse/pkg/config"
	"github.com/angelmondragon/backhouse/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
)

var testPINConfig = config.PINConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestRegisterAndVerify(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, testPINConfig)
	require.NoError(t, err)
	ctx := context.Background()

	member, err := svc.Register(ctx, " Dana ", "2468")
	require.NoError(t, err)
	assert.Equal(t, "Dana", member.DisplayName)
	assert.NotEqual(t, "2468", member.PinHash)

	require.NoError(t, svc.VerifyPIN(ctx, member.ID, "2468"))

	err = svc.VerifyPIN(ctx, member.ID, "2469")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidPIN))

	err = svc.VerifyPIN(ctx, uuid.New(), "2468")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidPIN))

	err = svc.VerifyPIN(ctx, member.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidPIN))

	require.NoError(t, repo.SetActive(ctx, member.ID, false))
	err = svc.VerifyPIN(ctx, member.ID, "2468")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidPIN))
}

func TestRegisterValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), testPINConfig)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "", "1234")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(context.Background(), "Kai", "12ab")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
