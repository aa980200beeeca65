// Package registry maps task kind names to their implementations. Task
// discovery is a static registration table populated at startup by modules;
// there is no runtime reflection and no dynamic loading.
package registry
