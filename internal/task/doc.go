// Package task implements the nine task types of §4.5: for each of Build,
// Deploy, Run and Test a *Status (or *Result) task that reports readiness
// and, for Deploy, a DeleteDeploy task. Each type is a pure function from a
// resolved action and its dependency results to a Result, plus a
// declaration of the prerequisite tasks the solver must run first.
package task
