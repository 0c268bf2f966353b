package queueclient

// RPC path names the queue service exposes. The worker never calls
// these as raw strings so a rename on the service side only touches
// this file.
const (
	PathClaim          = "jobs:claimNextJob"
	PathProgress       = "jobs:reportJobProgress"
	PathComplete       = "jobs:completeJob"
	PathFail           = "jobs:failJob"
	PathIssueUploadURL = "files:generateUploadUrl"
	PathIssueDownload  = "files:getDownloadUrl"
)
