package main

import (
	"context"
	"testing"

	"morris/internal/app/apps"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestNewApp(t *testing.T) {
	ctx := context.Background()

	app, args, err := newApp(ctx, &cobra.Command{Use: "client"}, []string{"alice"})
	require.NoError(t, err)
	require.IsType(t, &apps.ClientApp{}, app)
	require.Equal(t, []string{"client", "alice"}, args)

	app, args, err = newApp(ctx, &cobra.Command{Use: "server"}, nil)
	require.NoError(t, err)
	require.IsType(t, &apps.ServerApp{}, app)
	require.Equal(t, []string{"server"}, args)

	_, _, err = newApp(ctx, &cobra.Command{Use: "bogus"}, nil)
	require.Error(t, err)
}

func TestChainedCheck(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	pass := func(name string) func(context.Context) error {
		return func(context.Context) error {
			calls = append(calls, name)
			return nil
		}
	}
	fail := func(context.Context) error {
		calls = append(calls, "fail")
		return boom
	}

	require.NoError(t, chainedCheck(context.Background(), pass("a"), pass("b")))
	require.Equal(t, []string{"a", "b"}, calls)

	calls = nil
	err := chainedCheck(context.Background(), pass("a"), fail, pass("c"))
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"a", "fail"}, calls)
}
