//go:build integration

package repo_test

import "github.com/adityardiansyah/smart-agen/testutil"

func init() {
	startPostgres = testutil.StartPostgres
}
