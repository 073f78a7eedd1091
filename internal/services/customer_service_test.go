package services

import (
	"context"
	"testing"
	"time"

	"commerce-service/internal/auth"
	"commerce-service/internal/domain"
	"commerce-service/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func addressInput() AddressInput {
	return AddressInput{Address: *billing()}
}

func TestCustomerService_CreateCustomer(t *testing.T) {
	f := newFixture(t)
	svc := NewCustomerService(f.repos, f.notifier, testSecret, time.Hour)

	second := addressInput()
	second.IsDefault = true
	second.Type = domain.AddressWork

	c, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{
		Name:      "  Maria Lima ",
		Email:     "Maria@Example.COM",
		Tags:      []string{"vip"},
		Addresses: []AddressInput{addressInput(), second},
	})
	require.NoError(t, err)

	assert.Equal(t, "Maria Lima", c.Name)
	assert.Equal(t, "maria@example.com", c.Email)
	require.Len(t, c.Addresses, 2)
	assert.False(t, c.Addresses[0].IsDefault)
	assert.True(t, c.Addresses[1].IsDefault)
	assert.Equal(t, domain.AddressHome, c.Addresses[0].Type)
	assert.Equal(t, "BR", c.Addresses[0].Country)

	welcome := f.notified(notification.KindWelcome)
	require.Len(t, welcome, 1)
	assert.Equal(t, "maria@example.com", welcome[0].To)

	tests := []struct {
		name    string
		in      CreateCustomerInput
		wantErr error
	}{
		{name: "duplicate email", in: CreateCustomerInput{Name: "Other", Email: "MARIA@example.com"}, wantErr: domain.ErrConflict},
		{name: "bad email", in: CreateCustomerInput{Name: "Other", Email: "maria"}, wantErr: domain.ErrValidation},
		{name: "missing name", in: CreateCustomerInput{Email: "other@example.com"}, wantErr: domain.ErrValidation},
		{
			name: "invalid address",
			in: CreateCustomerInput{
				Name: "Other", Email: "other@example.com",
				Addresses: []AddressInput{{Address: domain.Address{Street: "Rua A"}}},
			},
			wantErr: domain.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCustomer(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCustomerService_FirstAddressIsDefault(t *testing.T) {
	f := newFixture(t)
	svc := NewCustomerService(f.repos, nil, testSecret, time.Hour)

	c, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Name: "Joao", Email: "joao@example.com"})
	require.NoError(t, err)
	assert.Empty(t, c.Addresses)

	first, err := svc.AddAddress(context.Background(), c.ID, addressInput())
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.AddAddress(context.Background(), c.ID, addressInput())
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	in := addressInput()
	in.IsDefault = true
	in.State = "rj"
	third, err := svc.AddAddress(context.Background(), c.ID, in)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, third)

	in.State = "RJ"
	third, err = svc.AddAddress(context.Background(), c.ID, in)
	require.NoError(t, err)
	assert.True(t, third.IsDefault)

	got, err := svc.GetCustomer(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, got.Addresses, 3)
	assert.Equal(t, third.ID, got.DefaultAddress().ID)

	_, err = svc.AddAddress(context.Background(), 9999, addressInput())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetCustomer(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCustomerService_PasswordReset(t *testing.T) {
	f := newFixture(t)
	svc := NewCustomerService(f.repos, f.notifier, testSecret, 30*time.Minute)
	c := f.customer(t, "ana@example.com")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), " ANA@example.com "))

	resets := f.notified(notification.KindPasswordReset)
	require.Len(t, resets, 1)
	assert.Equal(t, "ana@example.com", resets[0].To)
	token, ok := resets[0].Data["Token"].(string)
	require.True(t, ok)

	id, err := svc.VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)

	t.Run("unknown email is silent", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@example.com"))
		assert.Len(t, f.notified(notification.KindPasswordReset), 1)
	})

	t.Run("malformed email", func(t *testing.T) {
		assert.ErrorIs(t, svc.RequestPasswordReset(context.Background(), "nope"), domain.ErrValidation)
	})

	t.Run("access token is not a reset token", func(t *testing.T) {
		access, err := auth.Issue(testSecret, auth.Claims{
			CustomerID: c.ID,
			Role:       auth.RoleCustomer,
			Purpose:    auth.PurposeAccess,
			ExpiresAt:  time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		_, err = svc.VerifyResetToken(access)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewCustomerService(f.repos, f.notifier, testSecret, time.Minute)
		expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
		require.NoError(t, expired.RequestPasswordReset(context.Background(), "ana@example.com"))

		resets := f.notified(notification.KindPasswordReset)
		_, err := svc.VerifyResetToken(resets[len(resets)-1].Data["Token"].(string))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewCustomerService(f.repos, nil, "another-secret", time.Hour)
		_, err := other.VerifyResetToken(token)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
