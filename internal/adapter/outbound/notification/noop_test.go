package notification

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jonny/times-relay/internal/domain/model"
)

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(slog.New(slog.NewTextHandler(&buf, nil)))

	err := r.ReportFailure(context.Background(), &model.CommandError{
		Kind:      model.ErrKindStore,
		Command:   "add_channel_id",
		UserID:    "u1",
		ChannelID: "c1",
		Err:       errors.New("disk full"),
	})
	if err != nil {
		t.Fatalf("ReportFailure: %v", err)
	}
	for _, want := range []string{"kind=store", "command=add_channel_id", "channel=c1", "disk full"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q missing %q", buf.String(), want)
		}
	}
}
