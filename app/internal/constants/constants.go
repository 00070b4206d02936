package constants

const StatusEnable = 1
const StatusDisable = 2

const SuperUserId = 1

func IsSuperUser(userId int64) bool {
	return userId == SuperUserId
}
