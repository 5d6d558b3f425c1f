package audit

import (
	"strings"
	"testing"
)

func TestBuildBaseQuery(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", "t1", Filter{EntityType: EntityBenefitRecord, EntityID: "rec-1"})
	if !strings.Contains(query, "entity_type = $2") || !strings.Contains(query, "entity_id = $3") {
		t.Fatalf("unexpected query %q", query)
	}
	if len(args) != 3 || args[0] != "t1" || args[2] != "rec-1" {
		t.Fatalf("unexpected args %v", args)
	}

	query, args = buildBaseQuery("SELECT 1", "t1", Filter{})
	if strings.Contains(query, "AND") || len(args) != 1 {
		t.Fatalf("empty filter should only scope by tenant: %q %v", query, args)
	}
}

func TestMarshalState(t *testing.T) {
	raw, err := marshalState(nil)
	if err != nil || raw != nil {
		t.Fatalf("nil state should marshal to nil, got %q %v", raw, err)
	}
	raw, err = marshalState(map[string]string{"status": "paid_out"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"status":"paid_out"}` {
		t.Fatalf("unexpected json %s", raw)
	}
}
