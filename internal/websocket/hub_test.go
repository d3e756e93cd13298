package websocket

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tailorshop/internal/events"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret []byte, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "role": role})
	s, err := token.SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestAuthorize(t *testing.T) {
	secret := []byte("test-secret")

	_, status := Authorize("", secret, "admin")
	assert.Equal(t, http.StatusUnauthorized, status)

	_, status = Authorize("not-a-jwt", secret, "admin")
	assert.Equal(t, http.StatusUnauthorized, status)

	_, status = Authorize(signed(t, []byte("other"), "admin"), secret, "admin")
	assert.Equal(t, http.StatusUnauthorized, status)

	role, status := Authorize(signed(t, secret, "tailor"), secret, "admin", "manager")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "tailor", role)

	role, status = Authorize(signed(t, secret, "manager"), secret, "admin", "manager")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "manager", role)
}

func TestHubFansOutAndStops(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := &Client{Hub: hub, Send: make(chan []byte, 4)}
	hub.register <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, hub.Send(context.Background(), events.OrderEvent{Type: events.OrderCreated, InvoiceID: "INV-9"}))

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), `"invoice_id":"INV-9"`)
	case <-time.After(time.Second):
		t.Fatal("client did not receive broadcast")
	}

	cancel()
	<-hub.done
	_, open := <-client.Send
	assert.False(t, open)
	assert.NoError(t, hub.Send(context.Background(), events.OrderEvent{Type: events.OrderDeleted}))
}
