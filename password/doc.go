// Package password hashes and verifies account passwords.
//
// New hashes are argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Imported accounts may carry bcrypt hashes ($2a$, $2b$, $2y$). [Verifier]
// accepts both and reports bcrypt or under-parameterised argon2id hashes
// through [Verifier.NeedsRehash] so the caller can upgrade them after a
// successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other guardian package.
//   - Log plaintext passwords.
package password
