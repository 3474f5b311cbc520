/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Loads each scenario through the API and checks the resulting state:
	- Students, subjects and timetable slots exist
	- Fee records are reconciled against their payments
	- Reset leaves only the first superuser
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/schooladmin/config"
	"github.com/warp/schooladmin/domain"
)

func TestScenarios_List(t *testing.T) {
	api := newTestAPI(t)

	var list []ScenarioDTO
	api.mustDo(http.StatusOK, http.MethodGet, "/scenarios/", nil, &list)

	require.Len(t, list, 2)
	assert.Equal(t, "empty", list[0].ID)
	assert.Equal(t, SampleSchool, list[1].ID)
}

func TestScenarios_SampleSchool(t *testing.T) {
	// GIVEN: A fresh database
	api := newTestAPI(t)

	// WHEN: Loading the sample school
	api.mustDo(http.StatusOK, http.MethodPost, "/scenarios/load", map[string]any{"scenario_id": SampleSchool}, nil)

	// THEN: It is the current scenario
	var current ScenarioDTO
	api.mustDo(http.StatusOK, http.MethodGet, "/scenarios/current", nil, &current)
	assert.Equal(t, SampleSchool, current.ID)

	// AND: Two students with records reconciled against their payments
	var students []domain.Student
	api.mustDo(http.StatusOK, http.MethodGet, "/students/", nil, &students)
	require.Len(t, students, 2)

	byNumber := map[string]domain.Student{}
	for _, s := range students {
		byNumber[s.StudentNumber] = s
	}
	john, jane := byNumber["ST001"], byNumber["ST002"]

	var johnRecords, janeRecords []domain.FeeRecord
	api.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/payments/fee-records/by-student/%d", john.ID), nil, &johnRecords)
	api.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/payments/fee-records/by-student/%d", jane.ID), nil, &janeRecords)
	require.Len(t, johnRecords, 1)
	require.Len(t, janeRecords, 1)

	assert.Equal(t, domain.StatusPaid, johnRecords[0].Status)
	assertMoney(t, "5500", johnRecords[0].TotalAmount, "total_amount")
	assertMoney(t, "0", johnRecords[0].Balance, "balance")

	assert.Equal(t, domain.StatusPartiallyPaid, janeRecords[0].Status)
	assertMoney(t, "3000", janeRecords[0].PaidAmount, "paid_amount")
	assertMoney(t, "2500", janeRecords[0].Balance, "balance")

	// AND: The Grade 5 timetable has three Monday slots
	var timetables []domain.Timetable
	api.mustDo(http.StatusOK, http.MethodGet, "/timetables/", nil, &timetables)
	require.Len(t, timetables, 1)
	var slots []domain.TimetableSlot
	api.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/timetables/slots/by-timetable/%d", timetables[0].ID), nil, &slots)
	assert.Len(t, slots, 3)

	// AND: John's midterm results
	var results []domain.ExamResult
	api.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/exams/results/by-student/%d", john.ID), nil, &results)
	assert.Len(t, results, 2)

	// AND: The demo users can log in
	assert.Equal(t, http.StatusOK, api.login("teacher@example.com", demoPassword).Code)
}

func TestScenarios_LoadTwiceIsRepeatable(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	require.NoError(t, api.h.LoadScenarioByID(ctx, SampleSchool))
	require.NoError(t, api.h.LoadScenarioByID(ctx, SampleSchool))

	students, err := api.h.Store.Students().List(ctx, domain.StudentFilter{Page: domain.Page{Limit: 100}})
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func TestScenarios_Unknown(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/scenarios/load", map[string]any{"scenario_id": "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown scenario", errorBody(t, rec).Error)
}

func TestScenarios_Reset(t *testing.T) {
	// GIVEN: The sample school
	api := newTestAPI(t)
	require.NoError(t, api.h.LoadScenarioByID(context.Background(), SampleSchool))

	// WHEN: Resetting
	api.mustDo(http.StatusOK, http.MethodPost, "/scenarios/reset", nil, nil)

	// THEN: No students, no current scenario, only the superuser
	var students []domain.Student
	api.mustDo(http.StatusOK, http.MethodGet, "/students/", nil, &students)
	assert.Empty(t, students)

	rec := api.do(http.MethodGet, "/scenarios/current", nil)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	var users []domain.User
	api.mustDo(http.StatusOK, http.MethodGet, "/users/", nil, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@example.com", users[0].Email)
	assert.Equal(t, http.StatusOK, api.login("admin@example.com", "admin").Code)
}

func TestScenarios_RoutesDisabled(t *testing.T) {
	api := newTestAPI(t, func(c *config.Config) { c.EnableScenarios = false })

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/scenarios/", nil).Code)
}
