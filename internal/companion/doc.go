// Package companion fetches the companion repository as a branch
// snapshot: the existing local copy is removed, the forge's zip archive
// of the branch tip is downloaded and extracted, and the archive is
// deleted. There is no versioning, no integrity check, and no retry;
// the fetch is a plain "give me whatever the branch holds right now".
package companion
