package accounts

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/databases/mocks"
	"github.com/linesmerrill/police-investigations-api/models"
	"github.com/linesmerrill/police-investigations-api/session"
)

type providerMock struct {
	mock.Mock
}

func (m *providerMock) SignUp(ctx context.Context, email, password string) (*session.User, error) {
	ret := m.Called(ctx, email, password)
	var u *session.User
	if ret.Get(0) != nil {
		u = ret.Get(0).(*session.User)
	}
	return u, ret.Error(1)
}

func (m *providerMock) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *providerMock) LookupUser(ctx context.Context, email string) (*session.User, error) {
	ret := m.Called(ctx, email)
	var u *session.User
	if ret.Get(0) != nil {
		u = ret.Get(0).(*session.User)
	}
	return u, ret.Error(1)
}

func (m *providerMock) IssueResetToken(userID string) (string, error) {
	ret := m.Called(userID)
	return ret.String(0), ret.Error(1)
}

func (m *providerMock) ResetPassword(ctx context.Context, resetToken, password string) (*session.User, error) {
	ret := m.Called(ctx, resetToken, password)
	var u *session.User
	if ret.Get(0) != nil {
		u = ret.Get(0).(*session.User)
	}
	return u, ret.Error(1)
}

type sentMail struct {
	to, subject, plain, html string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, plain, html string) error {
	f.sent = append(f.sent, sentMail{to, subject, plain, html})
	return f.err
}

var signUpData = models.SignUpData{
	Email:    "agente@pm.gov.br",
	Password: "segredo123",
	RG:       "12.345.678-9",
	Rank:     "Cabo",
	QRA:      "Alfa 1",
}

func newTestProvisioner() (*Provisioner, *providerMock, *mocks.OfficerDatabase, *fakeMailer) {
	provider := &providerMock{}
	officers := &mocks.OfficerDatabase{}
	mailer := &fakeMailer{}
	p := NewProvisioner(provider, officers, mailer, "https://app.example/")
	p.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return p, provider, officers, mailer
}

func TestProvisioner_SignUp(t *testing.T) {
	p, provider, officers, mailer := newTestProvisioner()
	ctx := context.Background()
	now := p.now()

	provider.On("SignUp", ctx, "agente@pm.gov.br", "segredo123").
		Return(&session.User{ID: "user-1", Email: "agente@pm.gov.br"}, nil)
	want := models.Officer{
		ID: "user-1", RG: "12.345.678-9", Rank: "Cabo", QRA: "Alfa 1",
		Email: "agente@pm.gov.br", CreatedAt: now, UpdatedAt: now,
	}
	officers.On("InsertOne", ctx, want).Return(nil)

	officer, err := p.SignUp(ctx, signUpData)
	require.NoError(t, err)
	assert.Equal(t, &want, officer)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "agente@pm.gov.br", mailer.sent[0].to)
	assert.Equal(t, "Conta criada", mailer.sent[0].subject)

	provider.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	officers.AssertExpectations(t)
}

func TestProvisioner_SignUpMailFailureIsIgnored(t *testing.T) {
	p, provider, officers, mailer := newTestProvisioner()
	mailer.err = errors.New("smtp down")
	ctx := context.Background()

	provider.On("SignUp", ctx, mock.Anything, mock.Anything).Return(&session.User{ID: "user-1", Email: "agente@pm.gov.br"}, nil)
	officers.On("InsertOne", ctx, mock.Anything).Return(nil)

	_, err := p.SignUp(ctx, signUpData)
	assert.NoError(t, err)
}

func TestProvisioner_SignUpCredentialFailure(t *testing.T) {
	p, provider, officers, mailer := newTestProvisioner()
	ctx := context.Background()

	provider.On("SignUp", ctx, mock.Anything, mock.Anything).Return(nil, session.ErrEmailTaken)

	officer, err := p.SignUp(ctx, signUpData)
	assert.Nil(t, officer)
	assert.ErrorIs(t, err, session.ErrEmailTaken)
	officers.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	assert.Empty(t, mailer.sent)
}

func TestProvisioner_SignUpProfileFailureRollsBack(t *testing.T) {
	p, provider, officers, mailer := newTestProvisioner()
	ctx := context.Background()

	provider.On("SignUp", ctx, mock.Anything, mock.Anything).Return(&session.User{ID: "user-1", Email: "agente@pm.gov.br"}, nil)
	officers.On("InsertOne", ctx, mock.Anything).Return(errors.New("mocked-error"))
	provider.On("DeleteUser", ctx, "user-1").Return(nil)

	officer, err := p.SignUp(ctx, signUpData)
	assert.Nil(t, officer)
	assert.EqualError(t, err, "create officer profile: mocked-error")
	provider.AssertCalled(t, "DeleteUser", ctx, "user-1")
	assert.Empty(t, mailer.sent)
}

func TestProvisioner_SignUpRollbackFailure(t *testing.T) {
	p, provider, officers, _ := newTestProvisioner()
	ctx := context.Background()

	provider.On("SignUp", ctx, mock.Anything, mock.Anything).Return(&session.User{ID: "user-1", Email: "agente@pm.gov.br"}, nil)
	officers.On("InsertOne", ctx, mock.Anything).Return(databases.ErrDuplicate)
	provider.On("DeleteUser", ctx, "user-1").Return(errors.New("store down"))

	_, err := p.SignUp(ctx, signUpData)
	require.Error(t, err)
	assert.ErrorIs(t, err, databases.ErrDuplicate)
	assert.Contains(t, err.Error(), "roll back credential: store down")
}

func TestProvisioner_RequestReset(t *testing.T) {
	p, provider, _, mailer := newTestProvisioner()
	ctx := context.Background()

	provider.On("LookupUser", ctx, "agente@pm.gov.br").Return(&session.User{ID: "user-1", Email: "agente@pm.gov.br"}, nil)
	provider.On("IssueResetToken", "user-1").Return("tok+en/1", nil)
	provider.On("LookupUser", ctx, "ninguem@pm.gov.br").Return(nil, databases.ErrNotFound)

	require.NoError(t, p.RequestReset(ctx, "agente@pm.gov.br"))
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].plain, "https://app.example/reset-password?token="+url.QueryEscape("tok+en/1"))
	assert.False(t, strings.Contains(mailer.sent[0].plain, "example//"))

	require.NoError(t, p.RequestReset(ctx, "ninguem@pm.gov.br"))
	assert.Len(t, mailer.sent, 1)
}

func TestProvisioner_ConfirmReset(t *testing.T) {
	p, provider, _, _ := newTestProvisioner()
	ctx := context.Background()

	provider.On("ResetPassword", ctx, "good", "novasenha1").Return(&session.User{ID: "user-1"}, nil)
	provider.On("ResetPassword", ctx, "bad", "novasenha1").Return(nil, session.ErrInvalidToken)

	assert.NoError(t, p.ConfirmReset(ctx, "good", "novasenha1"))
	assert.ErrorIs(t, p.ConfirmReset(ctx, "bad", "novasenha1"), session.ErrInvalidToken)
}
