// Package sim emulates a multirotor flight controller for bench work without hardware.
//
// A Vehicle integrates a toy rigid body driven by cascaded PID loops
// (position, velocity, attitude, rate) following a scripted setpoint pattern.
// Run exposes it over MAVLink: it sends a heartbeat every second, answers
// PARAM_REQUEST_LIST with the loop gains and streams the four telemetry messages
// the calibrator charts.
package sim
