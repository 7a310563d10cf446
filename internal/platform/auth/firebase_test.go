package auth

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIDTokenClient struct {
	token        *firebaseauth.Token
	err          error
	revokedCalls int
	plainCalls   int
}

func (f *fakeIDTokenClient) VerifyIDToken(context.Context, string) (*firebaseauth.Token, error) {
	f.plainCalls++
	return f.token, f.err
}

func (f *fakeIDTokenClient) VerifyIDTokenAndCheckRevoked(context.Context, string) (*firebaseauth.Token, error) {
	f.revokedCalls++
	return f.token, f.err
}

func tokenForTenant(tenant string) *firebaseauth.Token {
	token := &firebaseauth.Token{UID: "editor-1"}
	token.Firebase.Tenant = tenant
	return token
}

func TestFirebaseVerifierRevocationCheck(t *testing.T) {
	client := &fakeIDTokenClient{token: tokenForTenant("")}

	_, err := newFirebaseVerifier(client, "").VerifyIDToken(context.Background(), "t")
	require.NoError(t, err)
	_, err = newFirebaseVerifier(client, "", WithRevocationCheck()).VerifyIDToken(context.Background(), "t")
	require.NoError(t, err)

	assert.Equal(t, 1, client.plainCalls)
	assert.Equal(t, 1, client.revokedCalls)
}

func TestFirebaseVerifierIdentityTenant(t *testing.T) {
	cases := []struct {
		name       string
		pinned     string
		token      string
		wantErr    bool
		wantReason string
	}{
		{name: "no pinned tenant", pinned: "", token: "", wantReason: "ok"},
		{name: "matching tenant", pinned: "cms-editors-x1", token: "cms-editors-x1", wantReason: "ok"},
		{name: "other tenant", pinned: "cms-editors-x1", token: "shop-users-y2", wantErr: true, wantReason: "tenant_mismatch"},
		{name: "project level token", pinned: "cms-editors-x1", token: "", wantErr: true, wantReason: "tenant_mismatch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := &recordingRecorder{}
			v := newFirebaseVerifier(&fakeIDTokenClient{token: tokenForTenant(tc.token)}, tc.pinned, WithFirebaseRecorder(recorder))

			token, err := v.VerifyIDToken(context.Background(), "t")

			if tc.wantErr {
				require.ErrorIs(t, err, errFirebaseTenantMismatch)
				assert.Nil(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "editor-1", token.UID)
			}
			got := recorder.last(t)
			assert.Equal(t, kindFirebase, got.kind)
			assert.Equal(t, !tc.wantErr, got.success)
			assert.Equal(t, tc.wantReason, got.reason)
		})
	}
}

func TestFirebaseVerifierReportsTimeouts(t *testing.T) {
	recorder := &recordingRecorder{}
	v := newFirebaseVerifier(&fakeIDTokenClient{err: context.DeadlineExceeded}, "", WithFirebaseRecorder(recorder))

	_, err := v.VerifyIDToken(context.Background(), "t")

	require.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "timeout", recorder.last(t).reason)
}

func TestFirebaseVerifierNil(t *testing.T) {
	var v *FirebaseVerifier
	_, err := v.VerifyIDToken(context.Background(), "t")
	require.Error(t, err)
}
