package score

// Event is a terminal game occurrence that may award points.
type Event int

const (
	KillEnemy Event = iota
	KillSelf
	KillTeammate
	KillEnemyTurret
	KillOwnTurret
	KilledByAsteroid
	KilledByTurret

	CaptureFlag
	ReturnTeamFlag

	CaptureZone
	UncaptureZone

	HoldFlagInZone
	RemoveFlagFromEnemyZone

	RabbitHoldsFlag
	RabbitKilled
	RabbitKills

	ReturnFlagsToNexus

	ReturnFlagToZone
	LostFlag

	ScoreGoalEnemyTeam
	ScoreGoalHostileTeam
	ScoreGoalOwnTeam

	EnemyCoreDestroyed
	OwnCoreDestroyed

	numEvents
)

var eventDescriptions = [numEvents]string{
	KillEnemy:               "Kill enemy player",
	KillSelf:                "Kill self",
	KillTeammate:            "Kill teammate",
	KillEnemyTurret:         "Kill enemy turret",
	KillOwnTurret:           "Kill own turret",
	KilledByAsteroid:        "Killed by asteroid",
	KilledByTurret:          "Killed by turret",
	CaptureFlag:             "Touch enemy flag to your flag",
	ReturnTeamFlag:          "Return own flag to goal",
	CaptureZone:             "Capture zone",
	UncaptureZone:           "Lose captured zone to other team",
	HoldFlagInZone:          "Hold flag in zone for time",
	RemoveFlagFromEnemyZone: "Remove flag from enemy zone",
	RabbitHoldsFlag:         "Hold flag, per second",
	RabbitKilled:            "Kill the rabbit",
	RabbitKills:             "Kill other player if you are rabbit",
	ReturnFlagsToNexus:      "Return flags to Nexus",
	ReturnFlagToZone:        "Return flags to own zone",
	LostFlag:                "Lose captured flag to other team",
	ScoreGoalEnemyTeam:      "Score a goal against other team",
	ScoreGoalHostileTeam:    "Score a goal against Hostile team",
	ScoreGoalOwnTeam:        "Score a goal against own team",
	EnemyCoreDestroyed:      "Destroyed a Core on enemy team",
	OwnCoreDestroyed:        "Destroyed a Core on own team",
}

func (e Event) String() string {
	if e < 0 || e >= numEvents {
		return "Unknown event!"
	}
	return eventDescriptions[e]
}

// Events lists every scoring event in declaration order.
func Events() []Event {
	events := make([]Event, numEvents)
	for i := range events {
		events[i] = Event(i)
	}
	return events
}

// Group selects which ledger a point value applies to.
type Group int

const (
	TeamScore Group = iota
	IndividualScore
)
