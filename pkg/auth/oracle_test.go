package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type fakeFaucet struct {
	owner      common.Address
	ownerErr   error
	admin      bool
	adminErr   error
	backend    common.Address
	backendErr error
}

func (f *fakeFaucet) Owner(context.Context) (common.Address, error) {
	return f.owner, f.ownerErr
}

func (f *fakeFaucet) IsAdmin(context.Context, common.Address) (bool, error) {
	return f.admin, f.adminErr
}

func (f *fakeFaucet) Backend(context.Context) (common.Address, error) {
	return f.backend, f.backendErr
}

func TestIsAuthorized(t *testing.T) {
	t.Parallel()

	user := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	other := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	rpcErr := errors.New("connection refused")

	type testCase struct {
		name   string
		faucet *fakeFaucet
		want   bool
	}

	tests := []testCase{
		{name: "owner matches", faucet: &fakeFaucet{owner: user, backend: other}, want: true},
		{name: "admin flag set", faucet: &fakeFaucet{owner: other, admin: true, backend: other}, want: true},
		{name: "backend matches", faucet: &fakeFaucet{owner: other, backend: user}, want: true},
		{name: "all checks false", faucet: &fakeFaucet{owner: other, backend: other}, want: false},
		{
			name:   "two calls fail one passes",
			faucet: &fakeFaucet{ownerErr: rpcErr, adminErr: rpcErr, backend: user},
			want:   true,
		},
		{
			name:   "every call fails",
			faucet: &fakeFaucet{ownerErr: rpcErr, adminErr: rpcErr, backendErr: rpcErr},
			want:   false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, IsAuthorized(context.Background(), tc.faucet, user))
		})
	}
}
