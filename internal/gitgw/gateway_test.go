package gitgw

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func initGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test")

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

func runGit(t *testing.T, cwd string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = cwd
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, string(out))
	}
}

func TestCommitAllowsEmptyDiff(t *testing.T) {
	dir := initGitRepo(t)
	g := New()

	if err := g.Commit(context.Background(), dir, "commitly: no-op"); err != nil {
		t.Fatalf("Commit with no changes: %v", err)
	}
}

func TestCommitStagesAndRecordsChanges(t *testing.T) {
	dir := initGitRepo(t)
	g := New()

	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := g.Commit(context.Background(), dir, "commitly: add new.txt"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	status, err := g.StatusPorcelain(context.Background(), dir)
	if err != nil {
		t.Fatalf("StatusPorcelain: %v", err)
	}
	if len(status) != 0 {
		t.Errorf("expected a clean tree after commit, got %v", status)
	}
}

func TestBranchExists(t *testing.T) {
	dir := initGitRepo(t)
	g := New()

	exists, err := g.BranchExists(context.Background(), dir, "does-not-exist")
	if err != nil {
		t.Fatalf("BranchExists: %v", err)
	}
	if exists {
		t.Error("expected branch to not exist")
	}

	if err := g.CheckoutNewBranch(context.Background(), dir, "feature-x"); err != nil {
		t.Fatalf("CheckoutNewBranch: %v", err)
	}
	exists, err = g.BranchExists(context.Background(), dir, "feature-x")
	if err != nil {
		t.Fatalf("BranchExists: %v", err)
	}
	if !exists {
		t.Error("expected feature-x to exist after creating it")
	}
}

func TestCurrentBranch(t *testing.T) {
	dir := initGitRepo(t)
	runGit(t, dir, "checkout", "-q", "-b", "working-branch")

	g := New()
	branch, err := g.CurrentBranch(context.Background(), dir)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "working-branch" {
		t.Errorf("CurrentBranch = %q, want working-branch", branch)
	}
}

func TestDeleteBranchNonExistentIsNotAnError(t *testing.T) {
	dir := initGitRepo(t)
	g := New()
	if err := g.DeleteBranch(context.Background(), dir, "never-existed"); err != nil {
		t.Errorf("expected deleting a missing branch to be a no-op, got: %v", err)
	}
}

func TestLogParsesCommitRecords(t *testing.T) {
	dir := initGitRepo(t)
	g := New()

	if err := os.WriteFile(filepath.Join(dir, "second.txt"), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", "second.txt")
	runGit(t, dir, "commit", "-q", "-m", "second commit")

	entries, err := g.Log(context.Background(), dir, "HEAD")
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "second commit" {
		t.Errorf("newest entry Message = %q, want %q", entries[0].Message, "second commit")
	}
	if entries[1].Message != "initial" {
		t.Errorf("oldest entry Message = %q, want %q", entries[1].Message, "initial")
	}
	for _, e := range entries {
		if e.Hash == "" || e.Author == "" || e.Timestamp == "" {
			t.Errorf("entry missing a field: %+v", e)
		}
	}
}

func TestDiffNameOnlyAndNumstat(t *testing.T) {
	dir := initGitRepo(t)
	g := New()

	base, err := g.RevParse(context.Background(), dir, "HEAD")
	if err != nil {
		t.Fatalf("RevParse: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\nmore content\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-q", "-m", "edit readme")

	files, err := g.DiffNameOnly(context.Background(), dir, base, "HEAD")
	if err != nil {
		t.Fatalf("DiffNameOnly: %v", err)
	}
	if len(files) != 1 || files[0] != "README.md" {
		t.Errorf("DiffNameOnly = %v, want [README.md]", files)
	}

	numstat, err := g.DiffNumstat(context.Background(), dir, base, "HEAD")
	if err != nil {
		t.Fatalf("DiffNumstat: %v", err)
	}
	if len(numstat) != 1 || !strings.Contains(numstat[0], "README.md") {
		t.Errorf("DiffNumstat = %v, want a line referencing README.md", numstat)
	}
}

func TestApplyCheckRejectsConflictingPatch(t *testing.T) {
	dir := initGitRepo(t)
	g := New()

	badPatch := []byte("diff --git a/does-not-exist.txt b/does-not-exist.txt\n" +
		"--- a/does-not-exist.txt\n+++ b/does-not-exist.txt\n@@ -1 +1 @@\n-old\n+new\n")
	if err := g.ApplyCheck(context.Background(), dir, badPatch); err == nil {
		t.Error("expected ApplyCheck to reject a patch against a non-existent file")
	}
}

func TestRemoteURLErrorsWithoutARemote(t *testing.T) {
	dir := initGitRepo(t)
	g := New()
	if _, err := g.RemoteURL(context.Background(), dir, "origin"); err == nil {
		t.Error("expected an error resolving a remote that was never configured")
	}
}
