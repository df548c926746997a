package model

import (
	"testing"
	"time"

	"Nightfall/internal/session/entity"
)

func TestSnapshotMapping_行与文档互转(t *testing.T) {
	in := &entity.SessionPersistSnapshot{
		Version:   9,
		SessionID: "s1",
		Status:    entity.StatusStopped,
		Turn:      30,
		State:     []byte(`{"turn":30}`),
		UpdatedAt: time.Unix(100, 0).UTC(),
	}
	row := RowToSnapshot(SnapshotToRow(in))
	doc := DocToSnapshot(SnapshotToDoc(in))
	for _, got := range []*entity.SessionPersistSnapshot{row, doc} {
		if got.Version != in.Version || got.SessionID != in.SessionID || got.Status != in.Status ||
			got.Turn != in.Turn || string(got.State) != string(in.State) || !got.UpdatedAt.Equal(in.UpdatedAt) {
			t.Fatalf("映射后不一致: %+v", got)
		}
	}
	if (&SessionSnapshot{}).TableName() != "session_snapshot" {
		t.Fatalf("表名不对")
	}
}
