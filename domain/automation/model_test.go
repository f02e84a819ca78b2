package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateScheduledRequiresSchedule(t *testing.T) {
	a := Automation{ID: "a1", Kind: KindScheduled, Param: "PRINT 1"}
	assert.Error(t, a.Validate())

	a.Schedule = "*/5 * * * *"
	assert.NoError(t, a.Validate())
}

func TestValidateScheduledRejectsTarget(t *testing.T) {
	a := Automation{ID: "a1", Kind: KindScheduled, Schedule: "0 * * * *", Target: "robots", Param: "PRINT 1"}
	assert.Error(t, a.Validate())
}

func TestValidateTableChangeRequiresTarget(t *testing.T) {
	a := Automation{ID: "a1", Kind: KindTableInsert, Param: "PRINT 1"}
	assert.Error(t, a.Validate())

	a.Target = "robots"
	assert.NoError(t, a.Validate())
}

func TestValidateTableChangeRejectsSchedule(t *testing.T) {
	a := Automation{ID: "a1", Kind: KindTableUpdate, Target: "robots", Schedule: "0 * * * *", Param: "PRINT 1"}
	assert.Error(t, a.Validate())
}

func TestValidateRejectsEmptyScript(t *testing.T) {
	a := Automation{ID: "a1", Kind: KindScheduled, Schedule: "0 * * * *"}
	assert.Error(t, a.Validate())
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	a := Automation{ID: "a1", Kind: "bogus", Param: "PRINT 1"}
	assert.Error(t, a.Validate())
}

func TestIsTableChange(t *testing.T) {
	assert.False(t, Automation{Kind: KindScheduled}.IsTableChange())
	assert.True(t, Automation{Kind: KindTableInsert}.IsTableChange())
	assert.True(t, Automation{Kind: KindTableUpdate}.IsTableChange())
	assert.True(t, Automation{Kind: KindTableDelete}.IsTableChange())
}

func TestLastTriggeredIsOptional(t *testing.T) {
	a := Automation{ID: "a1", Kind: KindScheduled, Schedule: "0 * * * *", Param: "PRINT 1"}
	assert.Nil(t, a.LastTriggered)
	now := time.Now()
	a.LastTriggered = &now
	assert.NotNil(t, a.LastTriggered)
}
