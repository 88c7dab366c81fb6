// Package mocks provides generated mock implementations for the identity and
// profile ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks.
// Hand-written scriptable doubles live in internal/mocks/auth; the generated
// mocks here are for tests that need strict call expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockProfileStore(ctrl)
//	store.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(p, nil)
package mocks

// Generate mocks for the profile and role ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ports_mocks.go github.com/itcache/portal/internal/ports ProfileStore,RoleDirectory
