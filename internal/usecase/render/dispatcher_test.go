package render

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/kailas-cloud/annotator/internal/domain"
	"github.com/kailas-cloud/annotator/internal/domain/geometry"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDispatcher_CaptureWorkflow(t *testing.T) {
	f := newFixture(map[string]*fakeDoc{"a": twoPageDoc()})
	d := f.startDispatcher(t)
	ctx := testContext(t)

	if _, err := d.Dispatch(ctx, FileOpened{Name: "a.pdf", Data: []byte("a")}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := d.WaitRendered(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if _, err := d.Dispatch(ctx, HighlightModeToggled{On: true}); err != nil {
		t.Fatal(err)
	}
	out, err := d.Dispatch(ctx, SelectionCaptured{Selection: helloSelection()})
	if err != nil || out.Pending == nil {
		t.Fatalf("selection = %+v, %v", out, err)
	}
	out, err = d.Dispatch(ctx, LabelConfirmed{Label: "Topic", Color: "#00ff00"})
	if err != nil || out.AnnotationID == "" {
		t.Fatalf("confirm = %+v, %v", out, err)
	}

	out, err = d.Dispatch(ctx, PageQueried{Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Page.Shapes) != 1 || out.Page.Shapes[0].Color != "#00ff00" {
		t.Errorf("page 1 shapes = %+v", out.Page.Shapes)
	}
	if out.Page.TextNodes != 1 {
		t.Errorf("text nodes = %d, want 1", out.Page.TextNodes)
	}

	out, err = d.Dispatch(ctx, PointerClicked{ClientPoint: geometry.Point{X: 50, Y: 15}})
	if err != nil || !out.Removed {
		t.Fatalf("delete click = %+v, %v", out, err)
	}
	if f.store.Len() != 0 {
		t.Errorf("store len = %d", f.store.Len())
	}
}

func TestDispatcher_NewDocumentCancelsRender(t *testing.T) {
	slow := twoPageDoc()
	slow.pages[0].block = true
	f := newFixture(map[string]*fakeDoc{"slow": slow, "b": twoPageDoc()})
	d := f.startDispatcher(t)
	ctx := testContext(t)

	if _, err := d.Dispatch(ctx, FileOpened{Name: "slow.pdf", Data: []byte("slow")}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Dispatch(ctx, FileOpened{Name: "b.pdf", Data: []byte("b")}); err != nil {
		t.Fatal(err)
	}
	if err := d.WaitRendered(ctx); err != nil {
		t.Fatal(err)
	}

	if !slow.closed.Load() {
		t.Error("previous document was not closed")
	}
	out, err := d.Dispatch(ctx, SessionQueried{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Session.DocumentName != "b.pdf" {
		t.Errorf("document = %q, want b.pdf", out.Session.DocumentName)
	}
	for _, p := range out.Session.Pages {
		if p.State != "annotations_applied" {
			t.Errorf("page %d state = %s", p.Number, p.State)
		}
	}
}

func TestDispatcher_DocumentClosedResetsStore(t *testing.T) {
	f := newFixture(map[string]*fakeDoc{"a": twoPageDoc()})
	d := f.startDispatcher(t)
	ctx := testContext(t)

	if _, err := d.Dispatch(ctx, FileOpened{Name: "a.pdf", Data: []byte("a")}); err != nil {
		t.Fatal(err)
	}
	_ = d.WaitRendered(ctx)
	_, _ = d.Dispatch(ctx, HighlightModeToggled{On: true})
	_, _ = d.Dispatch(ctx, SelectionCaptured{Selection: helloSelection()})
	_, _ = d.Dispatch(ctx, LabelConfirmed{Label: "Topic"})

	out, err := d.Dispatch(ctx, DocumentClosed{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Session.PageCount != 0 || f.store.Len() != 0 {
		t.Errorf("session = %+v, store len = %d", out.Session, f.store.Len())
	}
	if _, err := d.Dispatch(ctx, PageQueried{Page: 1}); !errors.Is(err, domain.ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
}

func TestDispatcher_Preview(t *testing.T) {
	f := newFixture(map[string]*fakeDoc{"a": twoPageDoc()})
	d := f.startDispatcher(t)
	ctx := testContext(t)

	if _, err := d.Preview(ctx, 1, 200); !errors.Is(err, domain.ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
	if _, err := d.Dispatch(ctx, FileOpened{Name: "a.pdf", Data: []byte("a")}); err != nil {
		t.Fatal(err)
	}
	_ = d.WaitRendered(ctx)

	data, err := d.Preview(ctx, 1, 200)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 50 {
		t.Errorf("preview size = %v, want 200x50", b)
	}
	if _, err := d.Preview(ctx, 3, 200); !errors.Is(err, domain.ErrPageOutOfRange) {
		t.Errorf("err = %v, want ErrPageOutOfRange", err)
	}
}

func TestDispatcher_Stopped(t *testing.T) {
	f := newFixture(nil)
	d := NewDispatcher(f.coord)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = d.Run(ctx)
	}()
	cancel()
	<-stopped

	_, err := d.Dispatch(context.Background(), SessionQueried{})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}
