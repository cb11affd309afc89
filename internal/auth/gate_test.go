package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

var gateNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func student(id string) *Caller {
	return &Caller{ID: id, Role: domain.RoleUser, ExpiresAt: gateNow.Add(time.Hour)}
}

func admin(id string) *Caller {
	return &Caller{ID: id, Role: domain.RoleAdmin, ExpiresAt: gateNow.Add(time.Hour)}
}

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name   string
		caller *Caller
		op     Operation
		owner  string
		want   Decision
	}{
		{"nil caller", nil, OpCreateOwn, "", deny(ReasonNotAuthenticated)},
		{"empty id", &Caller{Role: domain.RoleUser}, OpReadOwn, "u1", deny(ReasonNotAuthenticated)},
		{"unknown role", &Caller{ID: "u1", Role: "moderator"}, OpReadOwn, "u1", deny(ReasonNotAuthenticated)},
		{"expired credential", &Caller{ID: "a1", Role: domain.RoleAdmin, ExpiresAt: gateNow}, OpReadAll, "", deny(ReasonNotAuthenticated)},
		{"expired beats ownership", &Caller{ID: "u1", Role: domain.RoleUser, ExpiresAt: gateNow.Add(-time.Second)}, OpDeleteOwn, "u1", deny(ReasonNotAuthenticated)},

		{"user read all", student("u1"), OpReadAll, "", deny(ReasonInsufficientRole)},
		{"user update status", student("u1"), OpUpdateStatus, "u1", deny(ReasonInsufficientRole)},
		{"admin read all", admin("a1"), OpReadAll, "", allow()},
		{"admin update status on any complaint", admin("a1"), OpUpdateStatus, "u1", allow()},

		{"user create", student("u1"), OpCreateOwn, "", allow()},
		{"admin create", admin("a1"), OpCreateOwn, "", allow()},

		{"owner read", student("u1"), OpReadOwn, "u1", allow()},
		{"owner edit", student("u1"), OpUpdateOwnFields, "u1", allow()},
		{"owner delete", student("u1"), OpDeleteOwn, "u1", allow()},
		{"stranger read", student("u2"), OpReadOwn, "u1", deny(ReasonNotOwner)},
		{"stranger edit", student("u2"), OpUpdateOwnFields, "u1", deny(ReasonNotOwner)},
		{"stranger delete", student("u2"), OpDeleteOwn, "u1", deny(ReasonNotOwner)},
		{"admin does not bypass ownership on edit", admin("a1"), OpUpdateOwnFields, "u1", deny(ReasonNotOwner)},
		{"admin does not bypass ownership on delete", admin("a1"), OpDeleteOwn, "u1", deny(ReasonNotOwner)},
		{"admin does not read through read own", admin("a1"), OpReadOwn, "u1", deny(ReasonNotOwner)},
		{"missing owner", student("u1"), OpDeleteOwn, "", deny(ReasonNotOwner)},

		{"unknown operation", admin("a1"), Operation("purge"), "", deny(ReasonInsufficientRole)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.caller, tc.op, tc.owner, gateNow))
		})
	}
}

func TestAuthorize_ZeroExpiryIsNotChecked(t *testing.T) {
	caller := &Caller{ID: "u1", Role: domain.RoleUser}

	assert.True(t, Authorize(caller, OpReadOwn, "u1", gateNow).Allowed)
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, allow().Err())

	cases := map[DenyReason]int{
		ReasonNotAuthenticated: http.StatusUnauthorized,
		ReasonNotOwner:         http.StatusForbidden,
		ReasonInsufficientRole: http.StatusForbidden,
	}
	for reason, status := range cases {
		de := apperrors.ToDomainError(deny(reason).Err())
		assert.Equal(t, status, de.HTTPStatus, string(reason))
	}
}
