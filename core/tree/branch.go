package tree

import "github.com/huangsam/caliper/schema"

const (
	branchSeparator      = ":BRANCH:"
	pullRequestSeparator = ":PULL_REQUEST:"
)

// Branch is the branch an analysis runs on.
type Branch struct {
	Name           string
	Type           schema.BranchType
	PullRequestKey string
	TargetBranch   string
	Legacy         bool
}

// IsMain tells whether this is the main branch of the project.
func (b Branch) IsMain() bool {
	return b.Name == "" && b.PullRequestKey == ""
}

// IsShortLived tells whether unchanged parts of the tree are pruned.
func (b Branch) IsShortLived() bool {
	return !b.IsMain() && b.Type.IsShortLived()
}

// IsPullRequest tells whether the analysis is a pull request decoration.
func (b Branch) IsPullRequest() bool {
	return b.Type == schema.PullRequestBranch
}

// GenerateKey returns the branch-qualified key of a component.
// An empty path denotes the project or module itself.
func (b Branch) GenerateKey(projectKey, path string) string {
	if b.Legacy && b.Name != "" {
		return publicKey(projectKey+":"+b.Name, path)
	}
	key := publicKey(projectKey, path)
	switch {
	case b.IsMain():
		return key
	case b.PullRequestKey != "":
		return key + pullRequestSeparator + b.PullRequestKey
	default:
		return key + branchSeparator + b.Name
	}
}

// PublicKey returns the key of a component as shown to users.
func (b Branch) PublicKey(projectKey, path string) string {
	if b.Legacy && b.Name != "" {
		return b.GenerateKey(projectKey, path)
	}
	return publicKey(projectKey, path)
}

// Reference returns the long-lived branch a short-lived one is compared to.
func (b Branch) Reference() Branch {
	if b.TargetBranch == "" {
		return Branch{Type: schema.BranchBranch}
	}
	return Branch{Name: b.TargetBranch, Type: schema.LongBranch}
}

func publicKey(projectKey, path string) string {
	if path == "" {
		return projectKey
	}
	return projectKey + ":" + path
}
