package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "crewhub_"

const (
	TABLE_USER             = TableName("user")
	TABLE_ACCESS_TOKEN     = TableName("access_token")
	TABLE_PROJECT          = TableName("project")
	TABLE_PROJECT_ROLE     = TableName("project_role")
	TABLE_PROJECT_POSITION = TableName("project_position")
	TABLE_PROJECT_REQUEST  = TableName("project_request")
	TABLE_TEAM_MEMBER      = TableName("team_member")
	TABLE_NOTIFICATION     = TableName("notification")
)
