/*
Package expr parses navgraph route expressions.

# Overview

A route expression is the textual form of a navigation request. It names the
components to load, the viewports to load them into, their parameters and how
they nest. Parse turns an expression into an AST that the router converts into
viewport instructions.

# Expression Syntax

	<route>      := ['/'] [<composite>] ['?' <query>] ['#' <fragment>]
	<composite>  := ['+'] <scoped> ('+' <scoped>)*
	<scoped>     := <group> ['/' <scoped>]
	<group>      := '(' <composite> ')' | <segment>
	<segment>    := <component> <action> <viewport> ['!']
	<component>  := ('.' | '..' | <name>) <params>
	<action>     := ['.' <name> <params>]
	<viewport>   := ['@' <name>]
	<params>     := ['(' <param> (',' <param>)* ')']
	<param>      := <name> ['=' <name>]

A <name> is any run of characters up to one of the reserved characters

	? # / + ( ) . @ ! = , & ' ~ ;

Names are percent-decoded. A parameter without a key gets its position as the
key ("0", "1", ...).

# Examples

	home                     one component in the default viewport
	/users/42                absolute; "users" hosts "42"
	a/b(id=1)@side           b with parameter id=1 in viewport "side", nested under a
	list+detail(7)           two siblings, detail gets parameter "0"="7"
	(a/b)+c                  a group followed by a sibling
	search?q=go#results      query string and fragment

# Fragment routing

When fragmentIsRoute is set, the route is read from the fragment instead of
the path: "/#/a/b" parses the same as "a/b".
*/
package expr
