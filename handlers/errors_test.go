package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-management-service/services"
)

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
	}{
		{fmt.Errorf("%w: task not found", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: only managers may create tasks", services.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: unclosed dependent tasks", services.ErrValidation), http.StatusUnprocessableEntity},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, c.err)
		if rec.Code != c.wantCode {
			t.Errorf("writeServiceError(%v) status = %d, want %d", c.err, rec.Code, c.wantCode)
		}
	}
}
