package download_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"adforge/internal/download"
	"adforge/internal/services"
	"adforge/internal/tasks"
	"adforge/internal/testsupport"
)

func TestSaveWritesArtifact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	d := download.New(cfg, nil)

	task := &tasks.Task{
		JobID:     "job12345",
		Prompt:    "Citrus Soda Splash!",
		ResultURL: server.URL + "/artifacts/out.mp4",
	}

	path, err := d.Save(context.Background(), task)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) != "citrus-soda-splash-job12345.mp4" {
		t.Fatalf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("artifact content = %q", data)
	}
	if _, err := os.Stat(path + ".partial"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("partial file left behind")
	}
}

func TestSaveAvoidsCollisions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("v"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	d := download.New(cfg, nil)

	task := &tasks.Task{JobID: "job1", Prompt: "splash", ResultURL: server.URL + "/v.mp4"}
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DownloadsDir, "splash-job1.mp4"), 4)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DownloadsDir, "splash-job1-1.mp4"), 4)

	path, err := d.Save(context.Background(), task)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) != "splash-job1-2.mp4" {
		t.Fatalf("path = %s", path)
	}
}

func TestSaveRequiresArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := download.New(cfg, nil)

	_, err := d.Save(context.Background(), &tasks.Task{JobID: "job1"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSaveServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	d := download.New(cfg, nil)

	_, err := d.Save(context.Background(), &tasks.Task{
		JobID:     "job1",
		Prompt:    "splash",
		ResultURL: server.URL + "/v.mp4",
	})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestSaveDefaultsUnknownExtension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("v"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	d := download.New(cfg, nil)

	path, err := d.Save(context.Background(), &tasks.Task{
		JobID:     "job1",
		Prompt:    "splash",
		ResultURL: server.URL + "/artifact",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Ext(path) != ".mp4" {
		t.Fatalf("ext = %s", filepath.Ext(path))
	}
}
