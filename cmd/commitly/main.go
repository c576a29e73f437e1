// Command commitly automates the post-commit engineering pipeline: after a
// developer records a commit, it validates, tests, optimizes, and (on
// approval) publishes the change, then notifies collaborators and records
// an audit trail.
package main

func main() {
	Execute()
}
