package semantic

import "testing"

func TestPointIDDeterministic(t *testing.T) {
	a := PointID("analytics_abc123")
	b := PointID("analytics_abc123")
	if a != b {
		t.Errorf("same documentId gave different point IDs: %s vs %s", a, b)
	}
	if PointID("analytics_abc124") == a {
		t.Error("different documentIds should not collide")
	}
	if len(a) != 36 {
		t.Errorf("point ID %q is not a UUID string", a)
	}
}

func TestRecordPayload(t *testing.T) {
	r := IndexRecord{
		DocumentID: "transaction_t1",
		SourceType: "transactions",
		SourceID:   "t1",
		Content:    "Contract ID: c1",
		Model:      "gemini",
		Quality:    0.85,
	}
	p := recordPayload(r)

	if p["documentId"].GetStringValue() != "transaction_t1" {
		t.Errorf("documentId payload wrong: %v", p["documentId"])
	}
	if p["quality"].GetDoubleValue() != 0.85 {
		t.Errorf("quality payload wrong: %v", p["quality"])
	}
	if _, ok := p["siteId"]; ok {
		t.Error("empty siteId should be omitted")
	}

	r.SiteID = "site-1"
	p = recordPayload(r)
	if p["siteId"].GetStringValue() != "site-1" {
		t.Errorf("siteId payload wrong: %v", p["siteId"])
	}
}

func TestToFloat32(t *testing.T) {
	out := toFloat32([]float64{0.5, -1.25})
	if len(out) != 2 || out[0] != 0.5 || out[1] != -1.25 {
		t.Errorf("unexpected conversion: %v", out)
	}
}

func TestFieldMatch(t *testing.T) {
	c := fieldMatch("sourceType", "analytics")
	f := c.GetField()
	if f.GetKey() != "sourceType" {
		t.Errorf("key %q", f.GetKey())
	}
	if f.GetMatch().GetKeyword() != "analytics" {
		t.Errorf("keyword %q", f.GetMatch().GetKeyword())
	}
}
