/*
Package config loads declarative router configuration.

# Overview

A RouterConfig holds router settings and a route table. It is decoded from
YAML or JSON with mapstructure on top of Default, then validated. The
navgraph package turns it into router options and route definitions.

# File Format

	history_strategy: push        # push | replace | none
	routing_mode: configured-only # configured-only | configured-first
	title_separator: " | "
	max_redirects: 10
	journal:
	  driver: sqlite              # memory | sqlite | redis
	  path: ./navigation.db
	  session: main
	  restore: true
	routes:
	  - path: ["", home]
	    component: home
	    title: Home
	  - path: users/:id
	    component: user
	    transition_plan: invoke-lifecycles
	    routes:
	      - path: settings
	        component: user-settings
	  - path: old-users/:id
	    redirect_to: users/:id

A single path string is accepted where a list is expected.

# Loading

	cfg, err := config.FromFile("router.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	journal, err := cfg.Journal.OpenJournal()
*/
package config
