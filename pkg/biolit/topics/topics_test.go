package topics

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/spacebio/biolit/pkg/biolit/report"
)

func boneDoc(i int) string {
	return fmt.Sprintf("bone density loss skeletal femur microCT unloading result number %d", i)
}

func plantDoc(i int) string {
	return fmt.Sprintf("arabidopsis root growth auxin gravitropism seedling chamber result number %d", i)
}

func testCorpus() map[string]string {
	docs := make(map[string]string)
	for i := 0; i < 4; i++ {
		docs[fmt.Sprintf("b%d", i)] = boneDoc(i)
		docs[fmt.Sprintf("p%d", i)] = plantDoc(i)
	}
	return docs
}

func TestClusterPartitionsCorpus(t *testing.T) {
	c := New(2, 3, 5)
	res := c.Cluster(testCorpus())

	if res.Status != report.StatusComplete {
		t.Fatalf("status = %s", res.Status)
	}
	if res.TotalDocs != 8 {
		t.Errorf("TotalDocs = %d", res.TotalDocs)
	}

	// Every document lands in exactly one topic.
	seen := make(map[string]int)
	for _, topic := range res.Topics {
		if len(topic.Members) == 0 {
			t.Errorf("topic %d has no members", topic.ID)
		}
		for _, m := range topic.Members {
			seen[m]++
		}
	}
	if len(seen) != 8 {
		t.Errorf("membership covers %d docs, want 8", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("doc %s in %d topics", id, n)
		}
	}

	// Ids are renumbered 1..N.
	for i, topic := range res.Topics {
		if topic.ID != i+1 {
			t.Errorf("topic ids not sequential: %d at position %d", topic.ID, i)
		}
		if topic.Name == "" || len(topic.Keywords) == 0 {
			t.Errorf("topic %d missing label: %+v", topic.ID, topic)
		}
	}
}

func TestClusterInsufficientData(t *testing.T) {
	c := New(3, 5, 5)
	res := c.Cluster(map[string]string{"1": "only doc"})

	if res.Status != report.StatusInsufficientData {
		t.Fatalf("status = %s, want insufficient_data", res.Status)
	}
	if len(res.Topics) != 0 {
		t.Errorf("expected no topics, got %d", len(res.Topics))
	}
}

func TestClusterEmptyCorpus(t *testing.T) {
	// MinCorpus 0 must not let an empty corpus reach the clustering
	// step.
	c := New(3, 0, 5)
	res := c.Cluster(map[string]string{})

	if res.Status != report.StatusInsufficientData {
		t.Fatalf("status = %s, want insufficient_data", res.Status)
	}
	if len(res.Topics) != 0 {
		t.Errorf("expected no topics, got %d", len(res.Topics))
	}
}

func TestClusterDeterministic(t *testing.T) {
	docs := testCorpus()
	a := New(2, 3, 5).Cluster(docs)
	b := New(2, 3, 5).Cluster(docs)

	if len(a.Topics) != len(b.Topics) {
		t.Fatalf("topic counts differ: %d vs %d", len(a.Topics), len(b.Topics))
	}
	for i := range a.Topics {
		if !reflect.DeepEqual(a.Topics[i].Members, b.Topics[i].Members) {
			t.Errorf("topic %d members differ between runs", i+1)
		}
	}
}

func TestClusterFewerDocsThanTopics(t *testing.T) {
	docs := map[string]string{
		"1": boneDoc(1),
		"2": plantDoc(1),
		"3": boneDoc(2),
	}
	c := New(8, 2, 5)
	res := c.Cluster(docs)

	if res.Status != report.StatusComplete {
		t.Fatalf("status = %s", res.Status)
	}
	if len(res.Topics) > 3 {
		t.Errorf("more topics than documents: %d", len(res.Topics))
	}
}

func TestTopicName(t *testing.T) {
	if got := topicName([]string{"bone", "density", "loss", "extra"}); got != "bone / density / loss" {
		t.Errorf("topicName = %q", got)
	}
	if got := topicName([]string{"bone"}); got != "bone" {
		t.Errorf("topicName = %q", got)
	}
	if got := topicName(nil); got != "unlabeled" {
		t.Errorf("topicName(nil) = %q", got)
	}
}

func TestTopTerms(t *testing.T) {
	centroid := []float64{0.1, 0.9, 0, 0.5}
	vocab := []string{"alpha", "beta", "gamma", "delta"}

	got := topTerms(centroid, vocab, 2)
	want := []string{"beta", "delta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topTerms = %v, want %v", got, want)
	}
}
